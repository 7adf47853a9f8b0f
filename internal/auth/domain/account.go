package domain

import "time"

// Account is an identity record. The secret pointer is non-nil exactly when
// the second factor is enabled; the two fields are always updated together.
type Account struct {
	ID                  string
	Username            string
	Email               string
	PasswordHash        string  // argon2id PHC encoded
	SecondFactorEnabled bool
	SecondFactorSecret  *string // TOTP secret, base32 encoded (nullable)
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Identity is the public view of an account carried in login responses and
// session tokens. It never includes the password hash or TOTP secret.
type Identity struct {
	Username            string `json:"username"`
	Email               string `json:"email"`
	SecondFactorEnabled bool   `json:"second_factor_enabled"`
}

// IdentityOf projects the account's public identity.
func IdentityOf(a Account) Identity {
	return Identity{
		Username:            a.Username,
		Email:               a.Email,
		SecondFactorEnabled: a.SecondFactorEnabled,
	}
}
