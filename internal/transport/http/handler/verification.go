package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nearnest/api/internal/application/verification"
	"github.com/nearnest/api/internal/domain"
	"github.com/nearnest/api/internal/pkg/validate"
	"github.com/nearnest/api/internal/transport/http/middleware"
)

// RequestCodeBody is the payload for the "request" action.
type RequestCodeBody struct {
	Email string `json:"email" validate:"required"`
}

// VerifyCodeBody is the payload for the "verify" action.
type VerifyCodeBody struct {
	Code string `json:"code" validate:"required"`
}

// VerificationHandler handles the email verification flow endpoints.
type VerificationHandler struct {
	svc verification.Service
}

func NewVerificationHandler(svc verification.Service) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

// Action dispatches POST /v1/email-verification/{action}.
func (h *VerificationHandler) Action(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing credentials")
		return
	}
	switch chi.URLParam(r, "action") {
	case "request":
		var body RequestCodeBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid request body")
			return
		}
		if err := validate.Struct(&body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
			return
		}
		if err := h.svc.RequestCode(r.Context(), claims.AccountID, body.Email); err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ResultEnvelope{OK: true})
	case "verify":
		var body VerifyCodeBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid request body")
			return
		}
		if err := validate.Struct(&body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
			return
		}
		if err := h.svc.VerifyCode(r.Context(), claims.AccountID, body.Code); err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ResultEnvelope{OK: true, Status: domain.StatusEmailVerified})
	default:
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "unknown action")
	}
}
