package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// ErrSealedTooShort is returned by Open for input shorter than a nonce.
var ErrSealedTooShort = errors.New("cryptox: sealed data too short")

// Sealer encrypts small records with AES-256-GCM. The key is derived from a
// secret with HKDF-SHA256 so any passphrase length works.
//
// Output format: [12-byte nonce][ciphertext][16-byte tag]
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives an AES-256 key from secret. info separates keys derived
// from the same secret for different purposes.
func NewSealer(secret []byte, info string) (*Sealer, error) {
	if len(secret) == 0 {
		return nil, errors.New("cryptox: empty sealing secret")
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Sealer{aead: gcm}, nil
}

// Seal encrypts and authenticates plaintext. aad is bound to the output and
// must be passed unchanged to Open.
func (s *Sealer) Seal(plaintext, aad []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plaintext, aad), nil
}

// Open decrypts data produced by Seal.
func (s *Sealer) Open(sealed, aad []byte) ([]byte, error) {
	n := s.aead.NonceSize()
	if len(sealed) < n {
		return nil, ErrSealedTooShort
	}

	plaintext, err := s.aead.Open(nil, sealed[:n], sealed[n:], aad)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}
	return plaintext, nil
}
