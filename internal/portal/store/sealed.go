package store

import (
	"context"
	"fmt"

	"github.com/carematch360/portal/pkg/cryptox"
)

// sealInfo separates the session sealing key from any other key derived
// from the same secret.
const sealInfo = "carematch360 portal session v1"

// Sealed encrypts every value before it reaches the wrapped Store. The key
// name is bound as associated data, so a record copied to another key fails
// to open.
type Sealed struct {
	inner  Store
	sealer *cryptox.Sealer
}

// NewSealed wraps inner with AES-256-GCM sealing keyed from secret.
func NewSealed(inner Store, secret []byte) (*Sealed, error) {
	sealer, err := cryptox.NewSealer(secret, sealInfo)
	if err != nil {
		return nil, err
	}
	return &Sealed{inner: inner, sealer: sealer}, nil
}

func (s *Sealed) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	plain, err := s.sealer.Open(raw, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", key, err)
	}
	return plain, nil
}

func (s *Sealed) Set(ctx context.Context, key string, value []byte) error {
	sealed, err := s.sealer.Seal(value, []byte(key))
	if err != nil {
		return fmt.Errorf("failed to seal %q: %w", key, err)
	}
	return s.inner.Set(ctx, key, sealed)
}

func (s *Sealed) Delete(ctx context.Context, key string) error { return s.inner.Delete(ctx, key) }
func (s *Sealed) Ping(ctx context.Context) error               { return s.inner.Ping(ctx) }
func (s *Sealed) Close() error                                 { return s.inner.Close() }
