package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/carematch360/portal/pkg/slogx"
)

var (
	ErrInvalidTOTPCode         = errors.New("invalid TOTP code")
	ErrTwoFactorNotEnrolled    = errors.New("two-factor not set up")
	ErrTwoFactorAlreadyEnabled = errors.New("two-factor already enabled")
	ErrTwoFactorNotEnabled     = errors.New("two-factor not enabled")
)

// TwoFactorSetup is returned when enrolment starts.
type TwoFactorSetup struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpAuthUrl"`
}

// TwoFactorStatus reports whether a user has two-factor on.
type TwoFactorStatus struct {
	Enabled bool `json:"enabled"`
}

type TwoFactorService struct {
	Users  *Directory
	Issuer string // shown by authenticator apps, e.g. "CareMatch360"
}

// Setup generates a new TOTP secret. It is not enforced until Enable
// confirms a code from it.
func (s *TwoFactorService) Setup(ctx context.Context, userID string) (TwoFactorSetup, error) {
	u, err := s.Users.ByID(userID)
	if err != nil {
		return TwoFactorSetup{}, err
	}
	if u.TwoFactorEnabled {
		return TwoFactorSetup{}, ErrTwoFactorAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: u.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return TwoFactorSetup{}, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	err = s.Users.Update(userID, func(u *User) error {
		u.TwoFactorSecret = key.Secret()
		return nil
	})
	if err != nil {
		return TwoFactorSetup{}, err
	}

	slogx.FromContext(ctx).Info("two-factor setup started", "user_id", userID)
	return TwoFactorSetup{Secret: key.Secret(), OTPAuthURL: key.URL()}, nil
}

// Enable turns two-factor on after checking code against the pending secret.
func (s *TwoFactorService) Enable(ctx context.Context, userID, code string) error {
	return s.Users.Update(userID, func(u *User) error {
		switch {
		case u.TwoFactorEnabled:
			return ErrTwoFactorAlreadyEnabled
		case u.TwoFactorSecret == "":
			return ErrTwoFactorNotEnrolled
		case !totp.Validate(code, u.TwoFactorSecret):
			return ErrInvalidTOTPCode
		}
		u.TwoFactorEnabled = true
		slogx.FromContext(ctx).Info("two-factor enabled", "user_id", userID)
		return nil
	})
}

// Disable turns two-factor off. A current code is required.
func (s *TwoFactorService) Disable(ctx context.Context, userID, code string) error {
	return s.Users.Update(userID, func(u *User) error {
		if !u.TwoFactorEnabled {
			return ErrTwoFactorNotEnabled
		}
		if !totp.Validate(code, u.TwoFactorSecret) {
			return ErrInvalidTOTPCode
		}
		u.TwoFactorEnabled = false
		u.TwoFactorSecret = ""
		slogx.FromContext(ctx).Info("two-factor disabled", "user_id", userID)
		return nil
	})
}

func (s *TwoFactorService) Status(userID string) (TwoFactorStatus, error) {
	u, err := s.Users.ByID(userID)
	if err != nil {
		return TwoFactorStatus{}, err
	}
	return TwoFactorStatus{Enabled: u.TwoFactorEnabled}, nil
}
