package http

import (
	"errors"
	"net/http"

	"github.com/quollhq/quoll/internal/auth/service"
	"github.com/quollhq/quoll/pkg/httpx"
	"github.com/quollhq/quoll/pkg/slogx"
)

// SecondFactorHandler serves second-factor enrollment for the authenticated
// account.
type SecondFactorHandler struct {
	EnrollmentService *service.EnrollmentService
}

// HandleEnable handles POST /v1/2fa/enable. The response carries the secret
// and provisioning URI exactly once; re-enabling rotates the secret.
func (h *SecondFactorHandler) HandleEnable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	username := httpx.UsernameFromContext(ctx)
	if username == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	enrollment, err := h.EnrollmentService.Enable(ctx, username)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "account not found")
			return
		}
		log.Error("second factor enable failed", "username", username, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, enrollment)
}

// HandleDisable handles POST /v1/2fa/disable. Idempotent.
func (h *SecondFactorHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	username := httpx.UsernameFromContext(ctx)
	if username == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	if err := h.EnrollmentService.Disable(ctx, username); err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "account not found")
			return
		}
		log.Error("second factor disable failed", "username", username, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
