package cryptox_test

import (
	"strings"
	"testing"

	"github.com/carematch360/portal/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestPasswordHasher_Hash(t *testing.T) {
	h := cryptox.NewPasswordHasher("")

	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "validpass"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 100)},
		{"empty password", ""},
		{"unicode password", "пароль🔒密码"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := h.Hash(tt.password)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=19456,t=2,p=1$"))
			require.Len(t, strings.Split(hash, "$"), 6)

			require.NoError(t, h.Verify(tt.password, hash))
		})
	}
}

func TestPasswordHasher_UniqueSalts(t *testing.T) {
	h := cryptox.NewPasswordHasher("")

	hash1, err := h.Hash("samepassword")
	require.NoError(t, err)
	hash2, err := h.Hash("samepassword")
	require.NoError(t, err)

	require.NotEqual(t, hash1, hash2)
	require.NoError(t, h.Verify("samepassword", hash1))
	require.NoError(t, h.Verify("samepassword", hash2))
}

func TestPasswordHasher_WrongPassword(t *testing.T) {
	h := cryptox.NewPasswordHasher("")
	hash, err := h.Hash("correct-password")
	require.NoError(t, err)

	for _, wrong := range []string{"wrong-password", "Correct-Password", "correct-password ", "", strings.Repeat("x", 10000)} {
		require.ErrorIs(t, h.Verify(wrong, hash), cryptox.ErrPasswordMismatch)
	}
}

func TestPasswordHasher_Pepper(t *testing.T) {
	peppered := cryptox.NewPasswordHasher("pepper-a")
	hash, err := peppered.Hash("validpass")
	require.NoError(t, err)

	require.NoError(t, peppered.Verify("validpass", hash))
	require.ErrorIs(t, cryptox.NewPasswordHasher("pepper-b").Verify("validpass", hash), cryptox.ErrPasswordMismatch)
	require.ErrorIs(t, cryptox.NewPasswordHasher("").Verify("validpass", hash), cryptox.ErrPasswordMismatch)
}

func TestPasswordHasher_InvalidHashFormat(t *testing.T) {
	h := cryptox.NewPasswordHasher("")

	tests := []struct {
		name        string
		invalidHash string
	}{
		{"empty hash", ""},
		{"wrong algorithm", "$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"missing parts", "$argon2id$v=19$m=19456"},
		{"malformed parameters", "$argon2id$v=19$invalid$c2FsdA$aGFzaA"},
		{"invalid base64 salt", "$argon2id$v=19$m=19456,t=2,p=1$!!!invalid!!!$aGFzaA"},
		{"invalid base64 hash", "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$!!!invalid!!!"},
		{"wrong version", "$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.Verify("test-password", tt.invalidHash)
			require.Error(t, err)
			require.NotErrorIs(t, err, cryptox.ErrPasswordMismatch)
		})
	}
}
