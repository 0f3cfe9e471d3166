package handler

// Every error response has the same shape:
//
//	{"error": "validation_error", "message": "...", "detail": "...", "fields": [...]}
//
// "detail" repeats "message" for web clients written against the previous
// backend, which read that key. "fields" is present only for validation
// errors.

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/grade-predictor/internal/apperror"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string               `json:"error"`   // Machine-readable error type (e.g., "not_found")
	Message string               `json:"message"` // Human-readable description
	Detail  string               `json:"detail"`
	Fields  []apperror.Violation `json:"fields,omitempty"`
}

// MessageResponse is the body of endpoints that only acknowledge.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code. Headers and
// status must be set before the body is written.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to its HTTP status and sends it. This is
// the only place that knows the mapping.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		// Never expose internal details: they may hold SQL or file paths.
		logger.Error("internal error", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
			Detail:  "An internal error occurred",
		})
		return
	}

	status := http.StatusInternalServerError
	errorType := "internal_error"
	message := appErr.Message

	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusUnprocessableEntity // 422
		errorType = "validation_error"
	case errors.Is(err, apperror.ErrConflict):
		status = http.StatusBadRequest // 400, what existing clients expect for a taken email
		errorType = "conflict"
	case errors.Is(err, apperror.ErrUnauthorized):
		status = http.StatusUnauthorized // 401
		errorType = "unauthorized"
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound // 404
		errorType = "not_found"
	case errors.Is(err, apperror.ErrModelInvocation):
		errorType = "model_error"
		logger.Error("prediction model failed", slog.String("error", err.Error()))
	default:
		logger.Error("unclassified application error", slog.String("error", err.Error()))
		message = "An internal error occurred"
	}

	writeJSON(w, status, ErrorResponse{
		Error:   errorType,
		Message: message,
		Detail:  message,
		Fields:  appErr.Violations,
	})
}

// readBody reads a bounded request body. An oversized body is reported as
// a validation error on "body".
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperror.Invalid([]apperror.Violation{{Field: "body", Message: "is too large"}})
		}
		return nil, apperror.Invalid([]apperror.Violation{{Field: "body", Message: "could not be read"}})
	}
	return body, nil
}
