package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/carematch360/portal/pkg/cryptox"
	"github.com/carematch360/portal/pkg/jwtx"
)

const signingKeyID = "dev-1"

// LoadSigningKey returns the EdDSA signer for access tokens.
//
// With no key file a fresh key is generated and held only in memory, so
// every restart invalidates outstanding tokens. With a key file the key is
// read from it, or generated and written there on first start.
func LoadSigningKey(path string, logger *slog.Logger) (*jwtx.EdDSASigner, error) {
	if path == "" {
		pemKey, err := cryptox.GenerateEd25519Key()
		if err != nil {
			return nil, err
		}
		logger.Info("using ephemeral signing key", "kid", signingKeyID)
		return jwtx.NewSignerEdDSA(signingKeyID, pemKey)
	}

	pemKey, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if pemKey, err = cryptox.GenerateEd25519Key(); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, pemKey, 0o600); err != nil {
			return nil, fmt.Errorf("write signing key: %w", err)
		}
		logger.Info("generated signing key", "path", path, "kid", signingKeyID)
	case err != nil:
		return nil, fmt.Errorf("read signing key: %w", err)
	default:
		logger.Info("loaded signing key", "path", path, "kid", signingKeyID)
	}

	return jwtx.NewSignerEdDSA(signingKeyID, pemKey)
}
