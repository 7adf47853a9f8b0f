package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/quollhq/quoll/internal/auth/domain"
	"github.com/quollhq/quoll/internal/auth/store"
)

type accountsRepo struct {
	q querier
}

const accountColumns = `id, username, email, password_hash, second_factor_enabled, second_factor_secret, created_at, updated_at`

func (r *accountsRepo) GetByID(ctx context.Context, id string) (domain.Account, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (r *accountsRepo) GetByUsername(ctx context.Context, username string) (domain.Account, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username = ?`, username)
	return scanAccount(row)
}

func (r *accountsRepo) Create(ctx context.Context, a domain.Account) error {
	now := formatTime(time.Now())
	createdAt := now
	if !a.CreatedAt.IsZero() {
		createdAt = formatTime(a.CreatedAt)
	}

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO accounts (id, username, email, password_hash, second_factor_enabled, second_factor_secret, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Username, a.Email, a.PasswordHash,
		boolToInt(a.SecondFactorEnabled), optionalString(a.SecondFactorSecret),
		createdAt, now,
	)
	return mapConstraint(err)
}

func (r *accountsRepo) List(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *accountsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *accountsRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM accounts WHERE username = ?`, username).Scan(&count)
	return count > 0, err
}

func (r *accountsRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM accounts WHERE email = ?`, email).Scan(&count)
	return count > 0, err
}

func (r *accountsRepo) SetSecondFactor(ctx context.Context, id string, secret string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE accounts SET second_factor_enabled = 1, second_factor_secret = ?, updated_at = ? WHERE id = ?`,
		secret, formatTime(time.Now()), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *accountsRepo) ClearSecondFactor(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE accounts SET second_factor_enabled = 0, second_factor_secret = NULL, updated_at = ? WHERE id = ?`,
		formatTime(time.Now()), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (domain.Account, error) {
	var (
		a         domain.Account
		enabled   int
		secret    sql.NullString
		createdAt string
		updatedAt string
	)
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &enabled, &secret, &createdAt, &updatedAt)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}

	a.SecondFactorEnabled = enabled != 0
	if secret.Valid {
		v := secret.String
		a.SecondFactorSecret = &v
	}
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return a, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func optionalString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
