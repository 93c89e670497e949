package careapi

import (
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// TwoFactorSetup is the body returned by TwoFactorAPI.Setup.
type TwoFactorSetup struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpAuthUrl"`
	QRCode     string `json:"qrCode,omitempty"`
}

// Code returns the TOTP code valid at t for this enrolment.
func (s TwoFactorSetup) Code(t time.Time) (string, error) {
	return TOTPCode(s.OTPAuthURL, t)
}

// TOTPCode derives the code valid at t from an otpauth:// URL.
func TOTPCode(otpauthURL string, t time.Time) (string, error) {
	key, err := otp.NewKeyFromURL(otpauthURL)
	if err != nil {
		return "", fmt.Errorf("invalid otpauth url: %w", err)
	}
	if key.Type() != "totp" {
		return "", fmt.Errorf("unsupported otp type %q", key.Type())
	}

	code, err := totp.GenerateCodeCustom(key.Secret(), t, totp.ValidateOpts{
		Period:    uint(key.Period()),
		Digits:    key.Digits(),
		Algorithm: key.Algorithm(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return code, nil
}
