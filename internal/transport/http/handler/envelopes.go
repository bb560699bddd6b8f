package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nearnest/api/internal/domain"
)

// ResultEnvelope is the success wrapper for verification operations.
type ResultEnvelope struct {
	OK     bool   `json:"ok"`
	Status string `json:"status,omitempty"`
}

// ErrorEnvelope is the failure wrapper. Error carries the stable failure tag
// clients switch on; Message is human-readable detail.
type ErrorEnvelope struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// MessageEnvelope is the generic response wrapper for informational endpoints.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, tag, msg string) {
	writeJSON(w, status, ErrorEnvelope{Error: tag, Message: msg})
}

// httpError maps domain sentinel errors to an HTTP status and failure tag.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", err.Error())
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrTooManyAttempts):
		writeError(w, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", err.Error())
	case errors.Is(err, domain.ErrExpired):
		writeError(w, http.StatusGone, "EXPIRED", err.Error())
	case errors.Is(err, domain.ErrCodeMismatch):
		writeError(w, http.StatusUnauthorized, "CODE_MISMATCH", err.Error())
	case errors.Is(err, domain.ErrEmailNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "EMAIL_NOT_CONFIGURED", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
}
