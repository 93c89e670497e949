package service

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/carematch360/portal/pkg/cryptox"
	"github.com/carematch360/portal/pkg/jwtx"
	"github.com/carematch360/portal/pkg/slogx"
)

const testPassword = "validpass"

// fastHasher keeps argon2 cheap in tests.
func fastHasher() *cryptox.PasswordHasher {
	return &cryptox.PasswordHasher{Params: cryptox.Argon2Params{
		Memory:      64,
		Iterations:  1,
		Parallelism: 1,
		KeyLength:   32,
		SaltLength:  16,
	}}
}

func newTokenService(t *testing.T) *TokenService {
	t.Helper()

	hasher := fastHasher()
	users := NewDirectory()
	require.NoError(t, users.Seed(hasher, testPassword, DefaultSeed))

	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA("test", pemKey)
	require.NoError(t, err)

	return &TokenService{
		Users:      users,
		Hasher:     hasher,
		Signer:     signer,
		Issuer:     "test-issuer",
		Audience:   []string{"test-aud"},
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	}
}

func TestTokenService_Login(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTokenService(t)

	t.Run("issues a pair with the user view", func(t *testing.T) {
		pair, err := s.Login(ctx, "Patient@Test.com ", testPassword, "")
		require.NoError(t, err)
		require.NotEmpty(t, pair.AccessToken)
		require.NotEmpty(t, pair.RefreshToken)
		require.NotNil(t, pair.User)
		require.Equal(t, "patient@test.com", pair.User.Email)
		require.Equal(t, "PATIENT", pair.User.Role)

		exp, ok := jwtx.PeekExpiry(pair.AccessToken)
		require.True(t, ok)
		require.WithinDuration(t, time.Now().Add(time.Minute), exp, 5*time.Second)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := s.Login(ctx, "patient@test.com", "wrong", "")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email looks like a wrong password", func(t *testing.T) {
		_, err := s.Login(ctx, "nobody@test.com", testPassword, "")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unverified account", func(t *testing.T) {
		_, err := s.Login(ctx, "unverified@test.com", testPassword, "")
		require.ErrorIs(t, err, ErrAccountUnverified)
	})

	t.Run("inactive account", func(t *testing.T) {
		u, err := s.Users.ByEmail("amb@test.com")
		require.NoError(t, err)
		require.NoError(t, s.Users.Update(u.ID, func(u *User) error {
			u.Active = false
			return nil
		}))

		_, err = s.Login(ctx, "amb@test.com", testPassword, "")
		require.ErrorIs(t, err, ErrAccountInactive)
	})
}

func TestTokenService_RefreshRotation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTokenService(t)

	first, err := s.Login(ctx, "res@test.com", testPassword, "")
	require.NoError(t, err)

	second, err := s.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)
	require.Nil(t, second.User, "refresh does not repeat the user")

	t.Run("rotated token is rejected", func(t *testing.T) {
		_, err := s.Refresh(ctx, first.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("reuse revokes the whole family", func(t *testing.T) {
		_, err := s.Refresh(ctx, second.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := s.Refresh(ctx, "not-a-token")
		require.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("housekeeping keeps revoked records until they expire", func(t *testing.T) {
		require.Zero(t, s.Housekeep(time.Now()))
		require.Equal(t, 2, s.Housekeep(time.Now().Add(s.RefreshTTL+time.Minute)))
		require.Zero(t, s.Housekeep(time.Now().Add(s.RefreshTTL+time.Minute)))
	})
}

func TestTokenService_ReuseDetectedAfterHousekeeping(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTokenService(t)

	first, err := s.Login(ctx, "patient@test.com", testPassword, "")
	require.NoError(t, err)
	second, err := s.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)

	require.Zero(t, s.Housekeep(time.Now()))

	_, err = s.Refresh(ctx, first.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = s.Refresh(ctx, second.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken, "reuse of a rotated token revokes the live one")
}

func TestTokenService_RefreshExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTokenService(t)
	s.RefreshTTL = -time.Second

	pair, err := s.Login(ctx, "patient@test.com", testPassword, "")
	require.NoError(t, err)

	_, err = s.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestTwoFactor_Lifecycle(t *testing.T) {
	t.Parallel()
	ctx := slogx.WithContext(context.Background(), slogx.Discard())
	tokens := newTokenService(t)
	tf := &TwoFactorService{Users: tokens.Users, Issuer: "CareMatch360"}

	u, err := tokens.Users.ByEmail("patient@test.com")
	require.NoError(t, err)

	require.ErrorIs(t, tf.Disable(ctx, u.ID, "000000"), ErrTwoFactorNotEnabled)
	require.ErrorIs(t, tf.Enable(ctx, u.ID, "000000"), ErrTwoFactorNotEnrolled)

	setup, err := tf.Setup(ctx, u.ID)
	require.NoError(t, err)
	require.NotEmpty(t, setup.Secret)
	require.Contains(t, setup.OTPAuthURL, "otpauth://totp/")

	status, err := tf.Status(u.ID)
	require.NoError(t, err)
	require.False(t, status.Enabled, "setup alone does not enforce")

	require.ErrorIs(t, tf.Enable(ctx, u.ID, "000000"), ErrInvalidTOTPCode)

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, tf.Enable(ctx, u.ID, code))

	_, err = tf.Setup(ctx, u.ID)
	require.ErrorIs(t, err, ErrTwoFactorAlreadyEnabled)

	t.Run("login requires the code", func(t *testing.T) {
		_, err := tokens.Login(ctx, "patient@test.com", testPassword, "")
		require.ErrorIs(t, err, ErrTwoFactorRequired)

		_, err = tokens.Login(ctx, "patient@test.com", testPassword, "123")
		require.ErrorIs(t, err, ErrTwoFactorRequired)

		code, err := totp.GenerateCode(setup.Secret, time.Now())
		require.NoError(t, err)
		pair, err := tokens.Login(ctx, "patient@test.com", testPassword, code)
		require.NoError(t, err)
		require.True(t, pair.User.TwoFactorEnabled)
	})

	code, err = totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, tf.Disable(ctx, u.ID, code))

	status, err = tf.Status(u.ID)
	require.NoError(t, err)
	require.False(t, status.Enabled)
}

func TestDirectory(t *testing.T) {
	t.Parallel()

	d := NewDirectory()
	require.NoError(t, d.Seed(fastHasher(), testPassword, DefaultSeed))

	u, err := d.ByEmail("ADMIN@test.com")
	require.NoError(t, err)
	require.Equal(t, "ADMIN", u.Role)

	byID, err := d.ByID(u.ID)
	require.NoError(t, err)
	require.Equal(t, u, byID)

	_, err = d.ByID("missing")
	require.ErrorIs(t, err, ErrUserNotFound)
	require.ErrorIs(t, d.Update("missing", func(*User) error { return nil }), ErrUserNotFound)

	// Returned users are copies.
	u.Role = "PATIENT"
	again, err := d.ByID(u.ID)
	require.NoError(t, err)
	require.Equal(t, "ADMIN", again.Role)
}

func TestHousekeepingService_StartStop(t *testing.T) {
	t.Parallel()

	tokens := newTokenService(t)
	tokens.RefreshTTL = time.Millisecond
	_, err := tokens.Login(context.Background(), "patient@test.com", testPassword, "")
	require.NoError(t, err)

	hk := NewHousekeepingService(tokens, slogx.Discard(), 10*time.Millisecond)
	hk.Start()
	require.Eventually(t, func() bool {
		tokens.mu.Lock()
		defer tokens.mu.Unlock()
		return len(tokens.refresh) == 0
	}, time.Second, 10*time.Millisecond)
	hk.Stop()
}
