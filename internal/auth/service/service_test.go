package service

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/quollhq/quoll/internal/auth/domain"
	"github.com/quollhq/quoll/internal/auth/store"
	"github.com/quollhq/quoll/internal/auth/store/drivers/sqlite"
	"github.com/quollhq/quoll/pkg/cryptox"
	"github.com/quollhq/quoll/pkg/idx"
	"github.com/quollhq/quoll/pkg/jwtx"
	"github.com/quollhq/quoll/pkg/totpx"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newTestSigner(t *testing.T) *jwtx.Signer {
	t.Helper()

	_, key, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	signer, err := jwtx.NewSigner("test-key", key)
	require.NoError(t, err)
	return signer
}

type testEnv struct {
	store  store.Store
	hasher *cryptox.Hasher
	totp   *totpx.Engine

	login      *LoginService
	enrollment *EnrollmentService
	accounts   *AccountService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st := newTestStore(t)
	hasher := cryptox.NewHasher()
	clock := func() time.Time { return testTime }
	totpEngine := &totpx.Engine{Now: clock}

	return &testEnv{
		store:  st,
		hasher: hasher,
		totp:   totpEngine,
		login: &LoginService{
			Store:     st,
			Passwords: hasher,
			TOTP:      totpEngine,
			Signer:    newTestSigner(t),
			Issuer:    "quoll-auth",
			TokenTTL:  time.Hour,
			Now:       clock,
		},
		enrollment: &EnrollmentService{
			Store:  st,
			TOTP:   totpEngine,
			Issuer: "quoll-auth",
		},
		accounts: &AccountService{
			Store:     st,
			Passwords: hasher,
		},
	}
}

func (e *testEnv) seedAccount(t *testing.T, username, email, password string) domain.Account {
	t.Helper()

	hash, err := e.hasher.Hash(password)
	require.NoError(t, err)

	account := domain.Account{
		ID:           idx.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	require.NoError(t, e.store.Accounts().Create(context.Background(), account))
	return account
}
