package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/carematch360/portal/pkg/cryptox"
	"github.com/carematch360/portal/pkg/jwtx"
	"github.com/carematch360/portal/pkg/slogx"
)

// Authentication method references carried in the amr claim.
const (
	AMRPassword = "pwd"
	AMROTP      = "otp"
	AMRRefresh  = "refresh"
)

var (
	ErrInvalidCredentials  = errors.New("invalid_credentials")
	ErrAccountUnverified   = errors.New("account_unverified")
	ErrAccountInactive     = errors.New("account_inactive")
	ErrTwoFactorRequired   = errors.New("two_factor_required")
	ErrInvalidRefreshToken = errors.New("invalid_refresh_token")
)

// TokenPair is what login and refresh hand back to the client.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	User         *UserView `json:"user,omitempty"`
}

type refreshRecord struct {
	userID    string
	amr       []string
	expiresAt time.Time
	revoked   bool
}

type TokenService struct {
	Users      *Directory
	Hasher     *cryptox.PasswordHasher
	Signer     jwtx.Signer
	Issuer     string
	Audience   []string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	mu      sync.Mutex
	refresh map[string]*refreshRecord // keyed by token fingerprint
}

// dummyHash is verified against when the email is unknown so both paths
// cost one argon2 evaluation.
var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// Login verifies email and password, and the TOTP code when the account has
// two-factor enabled, then issues a token pair.
func (s *TokenService) Login(ctx context.Context, email, password, code string) (*TokenPair, error) {
	l := slogx.FromContext(ctx)

	u, err := s.Users.ByEmail(email)
	if err != nil {
		dummyHashOnce.Do(func() { dummyHash, _ = s.Hasher.Hash("dummy-password") })
		_ = s.Hasher.Verify(password, dummyHash)
		return nil, ErrInvalidCredentials
	}
	if err := s.Hasher.Verify(password, u.PasswordHash); err != nil {
		l.Info("login password mismatch", slog.String("user_id", u.ID))
		return nil, ErrInvalidCredentials
	}
	if !u.Verified {
		return nil, ErrAccountUnverified
	}
	if !u.Active {
		return nil, ErrAccountInactive
	}

	amr := []string{AMRPassword}
	if u.TwoFactorEnabled {
		if code == "" || !totp.Validate(code, u.TwoFactorSecret) {
			return nil, ErrTwoFactorRequired
		}
		amr = append(amr, AMROTP)
	}

	pair, err := s.issue(u, amr, time.Now())
	if err != nil {
		return nil, err
	}
	view := u.View()
	pair.User = &view

	l.Info("login succeeded", slog.String("user_id", u.ID), slog.String("role", u.Role))
	return pair, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked; presenting a revoked token again revokes every token of its user.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	now := time.Now()
	fp := cryptox.FingerprintToken(refreshToken)

	s.mu.Lock()
	rt, ok := s.refresh[fp]
	switch {
	case !ok:
		s.mu.Unlock()
		return nil, ErrInvalidRefreshToken
	case rt.revoked:
		s.revokeUserLocked(rt.userID)
		s.mu.Unlock()
		slogx.FromContext(ctx).Warn("revoked refresh token reused", slog.String("user_id", rt.userID))
		return nil, ErrInvalidRefreshToken
	case now.After(rt.expiresAt):
		s.mu.Unlock()
		return nil, ErrInvalidRefreshToken
	}
	rt.revoked = true
	userID, amr := rt.userID, appendUnique(rt.amr, AMRRefresh)
	s.mu.Unlock()

	u, err := s.Users.ByID(userID)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	if !u.Active {
		return nil, ErrAccountInactive
	}
	return s.issue(u, amr, now)
}

// RevokeUser revokes every refresh token issued to userID.
func (s *TokenService) RevokeUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revokeUserLocked(userID)
}

func (s *TokenService) revokeUserLocked(userID string) {
	for _, rt := range s.refresh {
		if rt.userID == userID {
			rt.revoked = true
		}
	}
}

// Housekeep drops expired refresh records. Revoked records stay until they
// expire so that a replayed token is still recognised as reuse.
func (s *TokenService) Housekeep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for fp, rt := range s.refresh {
		if now.After(rt.expiresAt) {
			delete(s.refresh, fp)
			n++
		}
	}
	return n
}

func (s *TokenService) issue(u User, amr []string, now time.Time) (*TokenPair, error) {
	claims := jwtx.NewAccessClaims(u.ID, u.Email, u.Role, amr, s.AccessTTL, s.Issuer, s.Audience, now)
	access, err := s.Signer.Sign(claims)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.refresh == nil {
		s.refresh = make(map[string]*refreshRecord)
	}
	s.refresh[cryptox.FingerprintToken(refresh)] = &refreshRecord{
		userID:    u.ID,
		amr:       amr,
		expiresAt: now.Add(s.RefreshTTL),
	}
	s.mu.Unlock()

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func appendUnique(in []string, v string) []string {
	out := append([]string(nil), in...)
	for _, x := range out {
		if x == v {
			return out
		}
	}
	return append(out, v)
}
