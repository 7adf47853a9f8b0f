package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quollhq/quoll/internal/auth/domain"
	"github.com/quollhq/quoll/internal/auth/service"
	"github.com/quollhq/quoll/pkg/httpx"
	"github.com/quollhq/quoll/pkg/slogx"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type accountResponse struct {
	ID                  string `json:"id"`
	Username            string `json:"username"`
	Email               string `json:"email"`
	SecondFactorEnabled bool   `json:"second_factor_enabled"`
}

func toAccountResponse(a domain.Account) accountResponse {
	return accountResponse{
		ID:                  a.ID,
		Username:            a.Username,
		Email:               a.Email,
		SecondFactorEnabled: a.SecondFactorEnabled,
	}
}

// RegisterHandler handles POST /v1/auth/register.
type RegisterHandler struct {
	AccountService *service.AccountService
}

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.AccountService.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			httpx.WriteError(w, http.StatusBadRequest, "username, email and password are required")
		case errors.Is(err, service.ErrUsernameTaken):
			httpx.WriteError(w, http.StatusConflict, "username already exists")
		case errors.Is(err, service.ErrEmailTaken):
			httpx.WriteError(w, http.StatusConflict, "email already exists")
		default:
			log.Error("registration failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toAccountResponse(account))
}

type loginRequest struct {
	Username         string `json:"username"`
	Password         string `json:"password"`
	SecondFactorCode string `json:"second_factor_code,omitempty"`
}

type loginResponse struct {
	Token                string `json:"token,omitempty"`
	Username             string `json:"username,omitempty"`
	Email                string `json:"email,omitempty"`
	SecondFactorEnabled  bool   `json:"second_factor_enabled,omitempty"`
	SecondFactorRequired bool   `json:"second_factor_required,omitempty"`
	Message              string `json:"message,omitempty"`
}

// LoginHandler handles POST /v1/auth/login. Both legs of a two-factor login
// go through this endpoint; the second leg resubmits the password together
// with a code.
type LoginHandler struct {
	LoginService *service.LoginService
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, err := h.LoginService.Login(ctx, domain.LoginAttempt{
		Username:         req.Username,
		Password:         req.Password,
		SecondFactorCode: req.SecondFactorCode,
	})
	if err != nil {
		log.Error("login failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	switch outcome.State {
	case domain.LoginAuthenticated:
		httpx.WriteJSON(w, http.StatusOK, loginResponse{
			Token:               outcome.Token,
			Username:            outcome.Identity.Username,
			Email:               outcome.Identity.Email,
			SecondFactorEnabled: outcome.Identity.SecondFactorEnabled,
		})
	case domain.LoginChallengeRequired:
		httpx.WriteJSON(w, http.StatusOK, loginResponse{
			SecondFactorRequired: true,
			Message:              "second factor code required",
		})
	default:
		// All rejection reasons collapse to one category externally.
		httpx.WriteError(w, http.StatusUnauthorized, "invalid credentials")
	}
}
