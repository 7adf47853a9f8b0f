package http

import (
	"errors"
	"net/http"

	"github.com/quollhq/quoll/internal/auth/service"
	"github.com/quollhq/quoll/pkg/httpx"
	"github.com/quollhq/quoll/pkg/slogx"
)

// AccountsHandler serves the account read/delete plumbing.
type AccountsHandler struct {
	AccountService *service.AccountService
}

// HandleMe handles GET /v1/users/me for the authenticated account.
func (h *AccountsHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	username := httpx.UsernameFromContext(ctx)
	if username == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	account, err := h.AccountService.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "account not found")
			return
		}
		log.Error("failed to load account", "username", username, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toAccountResponse(account))
}

// HandleList handles GET /v1/users.
func (h *AccountsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	accounts, err := h.AccountService.List(ctx)
	if err != nil {
		log.Error("failed to list accounts", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	responses := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		responses = append(responses, toAccountResponse(a))
	}
	httpx.WriteJSON(w, http.StatusOK, responses)
}

// HandleGet handles GET /v1/users/{id}.
func (h *AccountsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	account, err := h.AccountService.GetByID(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "account not found")
			return
		}
		log.Error("failed to load account", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toAccountResponse(account))
}

// HandleDelete handles DELETE /v1/users/{id}.
func (h *AccountsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := h.AccountService.Delete(ctx, r.PathValue("id")); err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "account not found")
			return
		}
		log.Error("failed to delete account", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
