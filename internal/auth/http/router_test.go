package http

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quollhq/quoll/internal/auth/service"
	"github.com/quollhq/quoll/internal/auth/store/drivers/sqlite"
	"github.com/quollhq/quoll/pkg/cryptox"
	"github.com/quollhq/quoll/pkg/jwtx"
	"github.com/quollhq/quoll/pkg/totpx"
)

const testIssuer = "quoll-auth-test"

type httpEnv struct {
	router *Router
}

func newHTTPEnv(t *testing.T) *httpEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	_, key, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := jwtx.NewSigner("test-key", key)
	require.NoError(t, err)

	hasher := cryptox.NewHasher()
	totpEngine := &totpx.Engine{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := NewRouter(jwtx.NewVerifier("test-key", signer.Public(), testIssuer), "test", st, logger)
	router.LoginService = &service.LoginService{
		Store:     st,
		Passwords: hasher,
		TOTP:      totpEngine,
		Signer:    signer,
		Issuer:    testIssuer,
		TokenTTL:  time.Hour,
	}
	router.AccountService = &service.AccountService{Store: st, Passwords: hasher}
	router.EnrollmentService = &service.EnrollmentService{Store: st, TOTP: totpEngine, Issuer: testIssuer}
	router.ApplyRoutes()

	return &httpEnv{router: router}
}

// do sends a JSON request through the router and returns the recorded
// response. token is attached as a bearer token when non-empty.
func (e *httpEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func (e *httpEnv) register(t *testing.T, username, email, password string) accountResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/v1/auth/register", "", registerRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	return decodeBody[accountResponse](t, rec)
}

func (e *httpEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/v1/auth/login", "", loginRequest{
		Username: username,
		Password: password,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[loginResponse](t, rec)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestRegisterEndpoint(t *testing.T) {
	env := newHTTPEnv(t)

	account := env.register(t, "alice", "alice@example.com", "Secr3t!")
	require.NotEmpty(t, account.ID)
	require.Equal(t, "alice", account.Username)
	require.Equal(t, "alice@example.com", account.Email)
	require.False(t, account.SecondFactorEnabled)

	t.Run("duplicate username conflicts", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/auth/register", "", registerRequest{
			Username: "alice", Email: "other@example.com", Password: "pw",
		})
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/auth/register", "", registerRequest{
			Username: "bob", Email: "alice@example.com", Password: "pw",
		})
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("blank fields are rejected", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/auth/register", "", registerRequest{
			Username: "", Email: "x@example.com", Password: "pw",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoginEndpoint(t *testing.T) {
	env := newHTTPEnv(t)
	env.register(t, "alice", "alice@example.com", "Secr3t!")

	t.Run("valid credentials yield a token", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/auth/login", "", loginRequest{
			Username: "alice", Password: "Secr3t!",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[loginResponse](t, rec)
		require.NotEmpty(t, resp.Token)
		require.Equal(t, "alice", resp.Username)
		require.Equal(t, "alice@example.com", resp.Email)
		require.False(t, resp.SecondFactorRequired)
	})

	t.Run("failures do not reveal which field was wrong", func(t *testing.T) {
		wrongPassword := env.do(t, http.MethodPost, "/v1/auth/login", "", loginRequest{
			Username: "alice", Password: "nope",
		})
		unknownUser := env.do(t, http.MethodPost, "/v1/auth/login", "", loginRequest{
			Username: "mallory", Password: "nope",
		})

		require.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
		require.Equal(t, http.StatusUnauthorized, unknownUser.Code)
		require.Equal(t, wrongPassword.Body.String(), unknownUser.Body.String())
	})
}

func TestSecondFactorFlow(t *testing.T) {
	env := newHTTPEnv(t)
	env.register(t, "alice", "alice@example.com", "Secr3t!")
	token := env.login(t, "alice", "Secr3t!")

	rec := env.do(t, http.MethodPost, "/v1/2fa/enable", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	enrollment := decodeBody[struct {
		Secret          string `json:"secret"`
		ProvisioningURI string `json:"provisioning_uri"`
	}](t, rec)
	require.NotEmpty(t, enrollment.Secret)
	require.Contains(t, enrollment.ProvisioningURI, "otpauth://totp/")

	t.Run("password alone now yields a challenge", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/auth/login", "", loginRequest{
			Username: "alice", Password: "Secr3t!",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[loginResponse](t, rec)
		require.True(t, resp.SecondFactorRequired)
		require.Empty(t, resp.Token)
	})

	t.Run("wrong code is rejected like bad credentials", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/auth/login", "", loginRequest{
			Username: "alice", Password: "Secr3t!", SecondFactorCode: "000000",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid code completes the login", func(t *testing.T) {
		code, err := totpx.CodeAt(enrollment.Secret, time.Now())
		require.NoError(t, err)

		rec := env.do(t, http.MethodPost, "/v1/auth/login", "", loginRequest{
			Username: "alice", Password: "Secr3t!", SecondFactorCode: code,
		})
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[loginResponse](t, rec)
		require.NotEmpty(t, resp.Token)
		require.True(t, resp.SecondFactorEnabled)
	})

	t.Run("disable restores single-factor login", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/2fa/disable", token, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		env.login(t, "alice", "Secr3t!")
	})
}

func TestSecuredRoutesRequireToken(t *testing.T) {
	env := newHTTPEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/users/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")

	rec = env.do(t, http.MethodGet, "/v1/users/me", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUsersEndpoints(t *testing.T) {
	env := newHTTPEnv(t)
	alice := env.register(t, "alice", "alice@example.com", "Secr3t!")
	bob := env.register(t, "bob", "bob@example.com", "Secr3t!")
	token := env.login(t, "alice", "Secr3t!")

	t.Run("me resolves the token subject", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/v1/users/me", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[accountResponse](t, rec)
		require.Equal(t, alice.ID, resp.ID)
	})

	t.Run("list returns every account", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/v1/users", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[[]accountResponse](t, rec)
		require.Len(t, resp, 2)
	})

	t.Run("get by id", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/v1/users/"+bob.ID, token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[accountResponse](t, rec)
		require.Equal(t, "bob", resp.Username)

		rec = env.do(t, http.MethodGet, "/v1/users/missing", token, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delete removes the account", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, "/v1/users/"+bob.ID, token, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = env.do(t, http.MethodGet, "/v1/users/"+bob.ID, token, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHealthEndpoints(t *testing.T) {
	env := newHTTPEnv(t)

	rec := env.do(t, http.MethodGet, "/livez", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[healthResponse](t, rec)
	require.Equal(t, "ok", resp.Status)
	require.NotNil(t, resp.Checks)
	require.Equal(t, "ok", resp.Checks.Database)
}
