package cryptox_test

import (
	"testing"

	"github.com/carematch360/portal/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestSealer(t *testing.T) {
	s, err := cryptox.NewSealer([]byte("test-session-key"), "portal-session")
	require.NoError(t, err)

	plaintext := []byte(`{"accessToken":"access-token-1"}`)
	aad := []byte("cm360_session")

	t.Run("round trip", func(t *testing.T) {
		sealed, err := s.Seal(plaintext, aad)
		require.NoError(t, err)
		require.NotContains(t, string(sealed), "access-token-1")

		opened, err := s.Open(sealed, aad)
		require.NoError(t, err)
		require.Equal(t, plaintext, opened)
	})

	t.Run("random nonce per seal", func(t *testing.T) {
		a, err := s.Seal(plaintext, aad)
		require.NoError(t, err)
		b, err := s.Seal(plaintext, aad)
		require.NoError(t, err)
		require.NotEqual(t, a, b)
	})

	t.Run("wrong aad", func(t *testing.T) {
		sealed, err := s.Seal(plaintext, aad)
		require.NoError(t, err)

		_, err = s.Open(sealed, []byte("other_key"))
		require.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		sealed, err := s.Seal(plaintext, aad)
		require.NoError(t, err)

		other, err := cryptox.NewSealer([]byte("another-key"), "portal-session")
		require.NoError(t, err)
		_, err = other.Open(sealed, aad)
		require.Error(t, err)
	})

	t.Run("different info derives a different key", func(t *testing.T) {
		sealed, err := s.Seal(plaintext, aad)
		require.NoError(t, err)

		other, err := cryptox.NewSealer([]byte("test-session-key"), "something-else")
		require.NoError(t, err)
		_, err = other.Open(sealed, aad)
		require.Error(t, err)
	})

	t.Run("tampered", func(t *testing.T) {
		sealed, err := s.Seal(plaintext, aad)
		require.NoError(t, err)
		sealed[len(sealed)-1] ^= 0xff

		_, err = s.Open(sealed, aad)
		require.Error(t, err)
	})

	t.Run("too short", func(t *testing.T) {
		_, err := s.Open([]byte{1, 2, 3}, aad)
		require.ErrorIs(t, err, cryptox.ErrSealedTooShort)
	})

	t.Run("empty secret", func(t *testing.T) {
		_, err := cryptox.NewSealer(nil, "x")
		require.Error(t, err)
	})
}
