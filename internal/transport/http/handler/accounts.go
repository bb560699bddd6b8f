package handler

import (
	"net/http"

	"github.com/nearnest/api/internal/application/account"
	"github.com/nearnest/api/internal/transport/http/middleware"
)

// AccountHandler serves account lookups.
type AccountHandler struct {
	svc account.Service
}

func NewAccountHandler(svc account.Service) *AccountHandler {
	return &AccountHandler{svc: svc}
}

// Me returns the caller's own account record.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing credentials")
		return
	}
	a, err := h.svc.Get(r.Context(), claims.AccountID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
