package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/quollhq/quoll/internal/auth/domain"
	"github.com/quollhq/quoll/internal/auth/store"
	"github.com/quollhq/quoll/pkg/totpx"
)

var ErrAccountNotFound = errors.New("account not found")

// EnrollmentService enables and disables the second factor for an account.
// Both fields move together: the store applies the flag and the secret in a
// single atomic update, so the secret/flag invariant holds under concurrent
// reads.
type EnrollmentService struct {
	Store  store.Store
	TOTP   *totpx.Engine
	Issuer string // issuer label embedded in provisioning URIs
}

// Enable mints a fresh secret for the account and marks the second factor
// enabled. Re-enabling rotates the secret; the old one stops working
// immediately. The returned payload is the only time the secret leaves the
// store in plain form.
func (s *EnrollmentService) Enable(ctx context.Context, username string) (domain.SecondFactorEnrollment, error) {
	secret, err := s.TOTP.GenerateSecret()
	if err != nil {
		return domain.SecondFactorEnrollment{}, fmt.Errorf("generate second factor secret: %w", err)
	}

	var account domain.Account
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		account, err = tx.Accounts().GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		return tx.Accounts().SetSecondFactor(ctx, account.ID, secret)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.SecondFactorEnrollment{}, ErrAccountNotFound
		}
		return domain.SecondFactorEnrollment{}, err
	}

	return domain.SecondFactorEnrollment{
		Secret:          secret,
		ProvisioningURI: totpx.ProvisioningURI(s.Issuer, username, secret),
	}, nil
}

// Disable clears the enabled flag and the stored secret. Disabling an
// account that has no second factor is a no-op success, but the account
// itself must exist.
func (s *EnrollmentService) Disable(ctx context.Context, username string) error {
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		account, err := tx.Accounts().GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		return tx.Accounts().ClearSecondFactor(ctx, account.ID)
	})
	if errors.Is(err, store.ErrNotFound) {
		return ErrAccountNotFound
	}
	return err
}
