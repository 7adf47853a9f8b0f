// Package totpx implements time-based one-time passwords (RFC 6238) on top
// of pquerna/otp, with injectable clock and randomness so verification can
// be tested deterministically.
package totpx

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// SecretSize is the raw secret length in bytes before base32 encoding.
	SecretSize = 20

	// Period is the TOTP time step in seconds.
	Period = 30

	// Digits is the length of a generated code.
	Digits = 6

	// Skew is the number of adjacent time steps accepted on either side of
	// the current one. One step of drift matches common authenticator
	// behavior without widening the brute-force window much further.
	Skew = 1
)

// Engine generates TOTP secrets and verifies submitted codes. Rand and Now
// default to crypto/rand and the wall clock; tests override them.
type Engine struct {
	Rand io.Reader        // entropy source for GenerateSecret, nil means crypto/rand
	Now  func() time.Time // clock for code verification, nil means time.Now
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func validateOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    Period,
		Skew:      Skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// GenerateSecret produces a new random secret, base32-encoded without
// padding. It fails only if the entropy source does.
func (e *Engine) GenerateSecret() (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		// Issuer/AccountName are required by the library but irrelevant
		// here; the provisioning URI is built separately so the secret is
		// not tied to a label at generation time.
		Issuer:      "-",
		AccountName: "-",
		SecretSize:  SecretSize,
		Period:      Period,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
		Rand:        e.Rand,
	})
	if err != nil {
		return "", fmt.Errorf("totpx: generate secret: %w", err)
	}
	return key.Secret(), nil
}

// ProvisioningURI returns the otpauth:// URI an authenticator app scans to
// start generating codes for the account. Pure and deterministic.
func ProvisioningURI(issuer, account, secret string) string {
	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", issuer)
	v.Set("algorithm", "SHA1")
	v.Set("digits", strconv.Itoa(Digits))
	v.Set("period", strconv.Itoa(Period))

	u := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + issuer + ":" + account,
		RawQuery: v.Encode(),
	}
	return u.String()
}

// VerifyCode reports whether code is valid for secret at the current time
// step, allowing Skew steps of clock drift in either direction. Malformed or
// out-of-range codes are reported as false, never as an error. The
// underlying comparison is constant-time.
func (e *Engine) VerifyCode(secret, code string) bool {
	ok, err := totp.ValidateCustom(code, secret, e.now().UTC(), validateOpts())
	if err != nil {
		return false
	}
	return ok
}

// CodeAt computes the expected code for secret at time t. Exposed for tests
// and enrollment confirmation flows.
func CodeAt(secret string, t time.Time) (string, error) {
	code, err := totp.GenerateCodeCustom(secret, t.UTC(), validateOpts())
	if err != nil {
		return "", fmt.Errorf("totpx: compute code: %w", err)
	}
	return code, nil
}
