package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/quollhq/quoll/internal/auth/domain"
	"github.com/quollhq/quoll/internal/auth/store"
	"github.com/quollhq/quoll/pkg/idx"
)

var (
	ErrUsernameTaken = errors.New("username already exists")
	ErrEmailTaken    = errors.New("email already exists")
	ErrInvalidInput  = errors.New("invalid input")
)

// AccountService covers account lifecycle outside the login decision:
// registration and the read/delete plumbing.
type AccountService struct {
	Store     store.Store
	Passwords PasswordHasher
}

// Register creates a new account with a hashed password and the second
// factor off. Duplicate usernames and emails are reported distinctly so the
// caller can surface which field conflicts.
func (s *AccountService) Register(ctx context.Context, username, email, password string) (domain.Account, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return domain.Account{}, ErrInvalidInput
	}

	if taken, err := s.Store.Accounts().ExistsByUsername(ctx, username); err != nil {
		return domain.Account{}, err
	} else if taken {
		return domain.Account{}, ErrUsernameTaken
	}
	if taken, err := s.Store.Accounts().ExistsByEmail(ctx, email); err != nil {
		return domain.Account{}, err
	} else if taken {
		return domain.Account{}, ErrEmailTaken
	}

	hash, err := s.Passwords.Hash(password)
	if err != nil {
		return domain.Account{}, fmt.Errorf("hash password: %w", err)
	}

	account := domain.Account{
		ID:           idx.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}

	if err := s.Store.Accounts().Create(ctx, account); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Account{}, ErrUsernameTaken
		}
		return domain.Account{}, err
	}

	return account, nil
}

// GetByID fetches an account by id.
func (s *AccountService) GetByID(ctx context.Context, id string) (domain.Account, error) {
	account, err := s.Store.Accounts().GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, ErrAccountNotFound
	}
	return account, err
}

// GetByUsername fetches an account by username.
func (s *AccountService) GetByUsername(ctx context.Context, username string) (domain.Account, error) {
	account, err := s.Store.Accounts().GetByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, ErrAccountNotFound
	}
	return account, err
}

// List returns all accounts, newest first.
func (s *AccountService) List(ctx context.Context) ([]domain.Account, error) {
	return s.Store.Accounts().List(ctx)
}

// Delete removes an account by id.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	err := s.Store.Accounts().Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrAccountNotFound
	}
	return err
}
