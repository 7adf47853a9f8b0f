package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/quollhq/quoll/internal/auth/domain"
	"github.com/quollhq/quoll/internal/auth/store"
	"github.com/quollhq/quoll/pkg/jwtx"
	"github.com/quollhq/quoll/pkg/slogx"
	"github.com/quollhq/quoll/pkg/totpx"
)

// PasswordHasher is the pluggable hashing capability. A mismatch and a
// malformed stored hash both report false; the orchestrator never learns
// which.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Matches(password, encodedHash string) bool
}

// LoginService is the authentication decision procedure. Every call is an
// independent unit of work: both legs of a two-factor login re-verify the
// password from scratch and no partial-auth state is retained between them.
type LoginService struct {
	Store     store.Store
	Passwords PasswordHasher
	TOTP      *totpx.Engine
	Signer    *jwtx.Signer
	Issuer    string
	TokenTTL  time.Duration

	// Now is the clock for token issuance, injectable for tests.
	// nil means time.Now.
	Now func() time.Time
}

func (s *LoginService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Login runs the login state machine and returns one of three outcomes:
// Authenticated, ChallengeRequired, or Rejected. An unknown username and a
// wrong password produce identical rejections so usernames cannot be
// enumerated. The returned error is reserved for infrastructure failures
// (store, signing); expected failures are outcomes, not errors.
func (s *LoginService) Login(ctx context.Context, attempt domain.LoginAttempt) (domain.LoginOutcome, error) {
	log := slogx.FromContext(ctx)

	account, err := s.Store.Accounts().GetByUsername(ctx, strings.TrimSpace(attempt.Username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Same rejection shape as a wrong password.
			return domain.Rejected(domain.RejectInvalidCredentials), nil
		}
		return domain.LoginOutcome{}, err
	}

	if !s.Passwords.Matches(attempt.Password, account.PasswordHash) {
		log.Info("login rejected", "username", account.Username, "reason", domain.RejectInvalidCredentials)
		return domain.Rejected(domain.RejectInvalidCredentials), nil
	}

	if account.SecondFactorEnabled {
		code := strings.TrimSpace(attempt.SecondFactorCode)
		if code == "" {
			return domain.ChallengeRequired(), nil
		}

		if _, err := strconv.Atoi(code); err != nil {
			log.Info("login rejected", "username", account.Username, "reason", domain.RejectInvalidCodeFormat)
			return domain.Rejected(domain.RejectInvalidCodeFormat), nil
		}

		if account.SecondFactorSecret == nil || !s.TOTP.VerifyCode(*account.SecondFactorSecret, code) {
			log.Info("login rejected", "username", account.Username, "reason", domain.RejectInvalidCode)
			return domain.Rejected(domain.RejectInvalidCode), nil
		}
	}

	token, err := s.issueToken(account)
	if err != nil {
		return domain.LoginOutcome{}, err
	}

	return domain.Authenticated(token, domain.IdentityOf(account)), nil
}

// VerifyToken validates a session token and returns its claims. Both the
// signature and the expiry are mandatory checks.
func (s *LoginService) VerifyToken(token string) (jwtx.Claims, error) {
	v := jwtx.NewVerifier(s.Signer.KID(), s.Signer.Public(), s.Issuer)
	v.Now = s.Now
	return v.Verify(token)
}

func (s *LoginService) issueToken(account domain.Account) (string, error) {
	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = jwtx.DefaultSessionTTL
	}

	claims := jwtx.NewSessionClaims(
		account.Username,
		account.Email,
		account.SecondFactorEnabled,
		s.Issuer,
		ttl,
		s.now(),
	)
	return s.Signer.Sign(claims)
}
