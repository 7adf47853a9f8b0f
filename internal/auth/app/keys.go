package app

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/quollhq/quoll/pkg/cryptox"
	"github.com/quollhq/quoll/pkg/jwtx"
)

// InitSigningKey loads the Ed25519 session-token signing key, or generates
// one when no path is configured. The key is process-wide, read-only after
// startup; tokens signed with an ephemeral key do not survive restarts.
func InitSigningKey(cfg Config, logger *slog.Logger) (*jwtx.Signer, error) {
	var pemKey []byte

	switch {
	case cfg.SigningKeyPath == "":
		generated, err := cryptox.GenerateEd25519Key()
		if err != nil {
			return nil, err
		}
		pemKey = generated
		logger.Info("using ephemeral signing key; existing tokens will not survive a restart")

	default:
		path := filepath.Clean(cfg.SigningKeyPath)
		loaded, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			// First run: generate and persist so restarts keep old tokens valid.
			generated, genErr := cryptox.GenerateEd25519Key()
			if genErr != nil {
				return nil, genErr
			}
			if writeErr := os.WriteFile(path, generated, 0600); writeErr != nil {
				return nil, fmt.Errorf("persist signing key: %w", writeErr)
			}
			loaded = generated
			logger.Info("generated new signing key", "path", path)
		} else if err != nil {
			return nil, fmt.Errorf("read signing key: %w", err)
		}
		pemKey = loaded
	}

	key, err := cryptox.ParseEd25519Key(pemKey)
	if err != nil {
		return nil, err
	}

	return jwtx.NewSigner(keyID(pemKey), key)
}

// keyID derives a stable key identifier from the key material so verifiers
// restarted with the same key agree on the kid.
func keyID(pemKey []byte) string {
	sum := sha256.Sum256(pemKey)
	return "quoll-" + base64.RawURLEncoding.EncodeToString(sum[:6])
}
