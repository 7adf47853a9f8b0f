package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quollhq/quoll/internal/auth/app"
)

/*
 * Common constants and helper functions for auth service end-to-end tests.
 * The full application is wired up in-process and served over httptest, so
 * these tests cover the real config, key init, migration and routing paths.
 */

const (
	testUsername = "alice"
	testEmail    = "alice@example.com"
	testPassword = "Alice123!"
)

// setupAuthServer boots the application against a throwaway database file
// and returns its base URL. Everything is torn down with the test.
func setupAuthServer(t *testing.T) string {
	t.Helper()

	application, err := app.New(app.Config{
		Issuer:              "quoll-auth",
		TokenTTL:            time.Hour,
		DatabaseFile:        filepath.Join(t.TempDir(), "auth.db"),
		Env:                 "dev",
		LogLevel:            "error",
		LogFormat:           "text",
		ShutdownGracePeriod: 5 * time.Second,
	})
	require.NoError(t, err)

	server := httptest.NewServer(application.Handler())
	t.Cleanup(func() {
		server.Close()
		_ = application.Shutdown()
	})

	return server.URL
}

// postJSON sends a JSON POST and decodes the JSON response into out when out
// is non-nil. token is attached as a bearer token when non-empty.
func postJSON(t *testing.T, url, token string, body, out any) int {
	t.Helper()
	return doJSON(t, http.MethodPost, url, token, body, out)
}

func getJSON(t *testing.T, url, token string, out any) int {
	t.Helper()
	return doJSON(t, http.MethodGet, url, token, nil, out)
}

func doJSON(t *testing.T, method, url, token string, body, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type loginResult struct {
	Token                string `json:"token"`
	Username             string `json:"username"`
	Email                string `json:"email"`
	SecondFactorEnabled  bool   `json:"second_factor_enabled"`
	SecondFactorRequired bool   `json:"second_factor_required"`
	Message              string `json:"message"`
}

func registerUser(t *testing.T, baseURL, username, email, password string) {
	t.Helper()

	code := postJSON(t, baseURL+"/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, nil)
	require.Equal(t, http.StatusCreated, code)
}

func loginUser(t *testing.T, baseURL, username, password string) loginResult {
	t.Helper()

	var result loginResult
	code := postJSON(t, baseURL+"/v1/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	}, &result)
	require.Equal(t, http.StatusOK, code)
	return result
}
