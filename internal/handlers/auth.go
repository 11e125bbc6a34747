package handlers

import (
	"net/http"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/cgpacalc/internal/app"
)

type AuthHandler struct {
	service *app.Service
}

func NewAuthHandler(service *app.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

type credentials struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type tokenResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	us, err := h.service.Register(r.Context(), req.Username, req.Password, req.ConfirmPassword)
	if err != nil {
		logger.Debug.Printf("Registration of %q failed: %v", req.Username, err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tokenResponse{Token: us.Token, Username: us.Username})
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	us, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	logger.Info.Printf("Login successful for %s", us.Username)
	writeJSON(w, http.StatusOK, tokenResponse{Token: us.Token, Username: us.Username})
}

func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token, err := app.BearerToken(r, h.service.Config.Auth.TokenHeader)
	if err != nil {
		writeError(w, app.ErrUnauthorized)
		return
	}

	if err := h.service.Logout(r.Context(), token); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
