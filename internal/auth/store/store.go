package store

import (
	"context"
	"errors"

	"github.com/quollhq/quoll/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today,
// postgres later) implement this. Sub-repositories keep concerns tidy and
// stop callers from accidentally nesting transactions.
type Store interface {
	Accounts() Accounts

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, rolling back if fn returns
	// an error and committing otherwise. Prefer this over Tx directly.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	// GetByID returns an account by id.
	GetByID(ctx context.Context, id string) (domain.Account, error)

	// GetByUsername is used during login and enrollment.
	GetByUsername(ctx context.Context, username string) (domain.Account, error)

	// Create inserts a new account (id is provided by the app via ULID).
	// Returns ErrAlreadyExists on a username or email collision.
	Create(ctx context.Context, a domain.Account) error

	// List returns all accounts ordered by creation date (newest first).
	List(ctx context.Context) ([]domain.Account, error)

	// Delete removes an account by id.
	Delete(ctx context.Context, id string) error

	// ExistsByUsername reports whether the username is taken.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// ExistsByEmail reports whether the email is taken.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// SetSecondFactor stores the secret and marks the second factor
	// enabled in a single statement so concurrent readers never observe
	// one field without the other.
	SetSecondFactor(ctx context.Context, id string, secret string) error

	// ClearSecondFactor clears both the enabled flag and the secret in a
	// single statement. Clearing an already-clear account is a no-op.
	ClearSecondFactor(ctx context.Context, id string) error
}
