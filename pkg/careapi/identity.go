package careapi

import (
	"context"
	"net/http"

	"github.com/carematch360/portal/pkg/gateway"
)

// AuthAPI covers account lifecycle calls on the identity backend. Login and
// token refresh are owned by the gateway itself.
type AuthAPI struct{ c caller }

func (a *AuthAPI) Register(ctx context.Context, payload any) (*gateway.Response, error) {
	return a.c.do(ctx, http.MethodPost, "/auth/register", nil, payload)
}

// Logout revokes the caller's refresh tokens server side. It does not touch
// the local session; use Gateway.Logout for that.
func (a *AuthAPI) Logout(ctx context.Context) (*gateway.Response, error) {
	return a.c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (a *AuthAPI) VerifyEmail(ctx context.Context, token string) (*gateway.Response, error) {
	return a.c.do(ctx, http.MethodPost, "/auth/verify-email", nil, map[string]string{"token": token})
}

func (a *AuthAPI) ResendVerification(ctx context.Context, email string) (*gateway.Response, error) {
	return a.c.do(ctx, http.MethodPost, "/auth/resend-verification", nil, map[string]string{"email": email})
}

func (a *AuthAPI) ForgotPassword(ctx context.Context, email string) (*gateway.Response, error) {
	return a.c.do(ctx, http.MethodPost, "/auth/forgot-password", nil, map[string]string{"email": email})
}

func (a *AuthAPI) ResetPassword(ctx context.Context, payload any) (*gateway.Response, error) {
	return a.c.do(ctx, http.MethodPost, "/auth/reset-password", nil, payload)
}

func (a *AuthAPI) ChangePassword(ctx context.Context, payload any) (*gateway.Response, error) {
	return a.c.do(ctx, http.MethodPost, "/auth/change-password", nil, payload)
}

// UsersAPI reads and administers identity accounts.
type UsersAPI struct{ c caller }

func (u *UsersAPI) Me(ctx context.Context) (*gateway.Response, error) {
	return u.c.do(ctx, http.MethodGet, "/users/me", nil, nil)
}

func (u *UsersAPI) ByID(ctx context.Context, id string) (*gateway.Response, error) {
	return u.c.do(ctx, http.MethodGet, "/users"+seg(id), nil, nil)
}

func (u *UsersAPI) ByEmail(ctx context.Context, email string) (*gateway.Response, error) {
	return u.c.do(ctx, http.MethodGet, "/users/email"+seg(email), nil, nil)
}

func (u *UsersAPI) Deactivate(ctx context.Context, id string) (*gateway.Response, error) {
	return u.c.do(ctx, http.MethodPut, "/users"+seg(id, "deactivate"), nil, nil)
}

func (u *UsersAPI) Activate(ctx context.Context, id string) (*gateway.Response, error) {
	return u.c.do(ctx, http.MethodPut, "/users"+seg(id, "activate"), nil, nil)
}

// TwoFactorAPI manages TOTP enrolment for the logged-in user.
type TwoFactorAPI struct{ c caller }

// Setup starts enrolment. The response carries a TwoFactorSetup.
func (t *TwoFactorAPI) Setup(ctx context.Context) (*gateway.Response, error) {
	return t.c.do(ctx, http.MethodPost, "/auth/2fa/setup", nil, nil)
}

func (t *TwoFactorAPI) Enable(ctx context.Context, code string) (*gateway.Response, error) {
	return t.c.do(ctx, http.MethodPost, "/auth/2fa/enable", nil, map[string]string{"code": code})
}

func (t *TwoFactorAPI) Disable(ctx context.Context, code string) (*gateway.Response, error) {
	return t.c.do(ctx, http.MethodPost, "/auth/2fa/disable", nil, map[string]string{"code": code})
}

func (t *TwoFactorAPI) Status(ctx context.Context) (*gateway.Response, error) {
	return t.c.do(ctx, http.MethodGet, "/auth/2fa/status", nil, nil)
}
