package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/cgpacalc/internal/app"
	"github.com/shrimpsizemoose/cgpacalc/internal/models"
	"github.com/shrimpsizemoose/cgpacalc/internal/report"
)

type SessionHandler struct {
	service *app.Service
}

func NewSessionHandler(service *app.Service) *SessionHandler {
	return &SessionHandler{service: service}
}

type sessionHandlerFunc func(w http.ResponseWriter, r *http.Request, us *app.UserSession)

func (h *SessionHandler) authenticated(next sessionHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := app.BearerToken(r, h.service.Config.Auth.TokenHeader)
		if err != nil {
			logger.Debug.Printf("Auth failed: %v", err)
			writeError(w, app.ErrUnauthorized)
			return
		}

		us, err := h.service.Resume(r.Context(), token)
		if err != nil {
			writeError(w, err)
			return
		}
		next(w, r, us)
	}
}

type sessionResponse struct {
	Username string `json:"username"`
	*models.Session
}

type metaRequest struct {
	Level       string `json:"level"`
	SessionType string `json:"session_type"`
}

func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request, us *app.UserSession) {
	writeJSON(w, http.StatusOK, sessionResponse{Username: us.Username, Session: us.Session})
}

func (h *SessionHandler) HandleSetMeta(w http.ResponseWriter, r *http.Request, us *app.UserSession) {
	var req metaRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.SetMeta(r.Context(), us, req.Level, req.SessionType); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Username: us.Username, Session: us.Session})
}

func (h *SessionHandler) HandleAddCourse(w http.ResponseWriter, r *http.Request, us *app.UserSession) {
	var course models.Course
	if err := decodeJSON(r, &course); err != nil {
		writeError(w, err)
		return
	}

	added, err := h.service.AddCourse(r.Context(), us, course)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (h *SessionHandler) HandleGenerateCourse(w http.ResponseWriter, r *http.Request, us *app.UserSession) {
	added, err := h.service.AddGeneratedCourse(r.Context(), us)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (h *SessionHandler) HandleUpdateCourse(w http.ResponseWriter, r *http.Request, us *app.UserSession) {
	var course models.Course
	if err := decodeJSON(r, &course); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.service.UpdateCourse(r.Context(), us, r.PathValue("id"), course)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *SessionHandler) HandleRemoveCourse(w http.ResponseWriter, r *http.Request, us *app.UserSession) {
	if err := h.service.RemoveCourse(r.Context(), us, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) HandleSave(w http.ResponseWriter, r *http.Request, us *app.UserSession) {
	if err := h.service.SaveSession(r.Context(), us); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (h *SessionHandler) HandleLoad(w http.ResponseWriter, r *http.Request, us *app.UserSession) {
	if err := h.service.LoadSession(r.Context(), us); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Username: us.Username, Session: us.Session})
}

// HandleImport accepts either a multipart upload in the "file" field or a raw xlsx body.
func (h *SessionHandler) HandleImport(w http.ResponseWriter, r *http.Request, us *app.UserSession) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, models.ValidationError{Field: "file", Value: "", Message: err.Error()})
			return
		}
		defer file.Close()
		src = file
	}

	n, err := h.service.ImportCourses(r.Context(), us, src)
	if err != nil {
		logger.Debug.Printf("Import for %s failed: %v", us.Username, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"imported": n,
		"courses":  us.Session.Courses,
	})
}

func (h *SessionHandler) HandleResult(w http.ResponseWriter, r *http.Request, us *app.UserSession) {
	writeJSON(w, http.StatusOK, h.service.Calculate(us.Session))
}

func (h *SessionHandler) HandleReport(w http.ResponseWriter, r *http.Request, us *app.UserSession) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = report.FormatPDF
	}

	var buf bytes.Buffer
	if err := h.service.Report(&buf, us, format); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", report.ContentTypes[format])
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", us.Username+"_gpa_report."+format))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.Error.Printf("Failed to write report: %v", err)
	}
}

// HandleCalculate grades a course list sent in the body without touching any stored state.
func (h *SessionHandler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	var session models.Session
	if err := decodeJSON(r, &session); err != nil {
		writeError(w, err)
		return
	}

	for i := range session.Courses {
		if err := h.service.Grader.CheckCourse(&session.Courses[i]); err != nil {
			writeError(w, err)
			return
		}
	}
	if err := session.Validate(); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.service.Calculate(&session))
}
