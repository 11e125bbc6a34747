package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/cgpacalc/internal/app"
	"github.com/shrimpsizemoose/cgpacalc/internal/metrics"
	"github.com/shrimpsizemoose/cgpacalc/internal/models"
)

const maxUploadSize = 10 << 20

// NewRouter wires every API route of the calculator onto a fresh mux.
func NewRouter(service *app.Service) *http.ServeMux {
	auth := NewAuthHandler(service)
	sessions := NewSessionHandler(service)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/register", instrument(auth.HandleRegister))
	mux.HandleFunc("POST /api/v1/login", instrument(auth.HandleLogin))
	mux.HandleFunc("POST /api/v1/logout", instrument(auth.HandleLogout))

	mux.HandleFunc("GET /api/v1/session", instrument(sessions.authenticated(sessions.HandleGet)))
	mux.HandleFunc("PUT /api/v1/session", instrument(sessions.authenticated(sessions.HandleSetMeta)))
	mux.HandleFunc("POST /api/v1/session/courses", instrument(sessions.authenticated(sessions.HandleAddCourse)))
	mux.HandleFunc("POST /api/v1/session/courses/generate", instrument(sessions.authenticated(sessions.HandleGenerateCourse)))
	mux.HandleFunc("PUT /api/v1/session/courses/{id}", instrument(sessions.authenticated(sessions.HandleUpdateCourse)))
	mux.HandleFunc("DELETE /api/v1/session/courses/{id}", instrument(sessions.authenticated(sessions.HandleRemoveCourse)))
	mux.HandleFunc("POST /api/v1/session/save", instrument(sessions.authenticated(sessions.HandleSave)))
	mux.HandleFunc("POST /api/v1/session/load", instrument(sessions.authenticated(sessions.HandleLoad)))
	mux.HandleFunc("POST /api/v1/session/import", instrument(sessions.authenticated(sessions.HandleImport)))
	mux.HandleFunc("GET /api/v1/session/result", instrument(sessions.authenticated(sessions.HandleResult)))
	mux.HandleFunc("GET /api/v1/session/report", instrument(sessions.authenticated(sessions.HandleReport)))

	mux.HandleFunc("POST /api/v1/calculate", instrument(sessions.HandleCalculate))

	return mux
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func instrument(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		path := r.Pattern
		if path == "" {
			path = r.URL.Path
		}
		metrics.APIRequestDuration.WithLabelValues(
			path,
			r.Method,
			strconv.Itoa(rec.status),
		).Observe(time.Since(start).Seconds())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error.Printf("Failed to encode response: %v", err)
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return models.ValidationError{Field: "body", Value: "", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}

func statusOf(err error) int {
	var verr models.ValidationError
	var verrs validator.ValidationErrors

	switch {
	case errors.As(err, &verr), errors.As(err, &verrs):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrPasswordMismatch), errors.Is(err, app.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrInvalidCredentials), errors.Is(err, app.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrCourseNotFound), errors.Is(err, app.ErrNoSavedSession):
		return http.StatusNotFound
	case errors.Is(err, app.ErrUsernameTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error.Printf("ERROR: %v", err)
		message = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": message})
}
