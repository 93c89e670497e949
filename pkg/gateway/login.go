package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Login authenticates with the identity backend and installs the resulting
// session. A rejected login leaves any existing session untouched.
func (g *Gateway) Login(ctx context.Context, creds Credentials) (*Session, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := g.validate.Struct(creds); err != nil {
		return nil, &AuthError{Kind: KindInvalidCredentials, Message: validationMessage(err), Err: err}
	}

	base, err := g.base(TargetIdentity)
	if err != nil {
		return nil, err
	}

	req, err := NewRequest(TargetIdentity, http.MethodPost, pathLogin, creds)
	if err != nil {
		return nil, err
	}

	resp, err := g.send(ctx, base, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, classifyLoginError(resp)
	}

	var tok tokenResponse
	if err := resp.DecodeJSON(&tok); err != nil {
		return nil, err
	}

	sess := &Session{
		Identity:     tok.User,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}
	if !sess.valid() {
		return nil, fmt.Errorf("%w: login response lacks token or user", errMalformedResponse)
	}

	if err := g.store.replace(ctx, sess); err != nil {
		return nil, err
	}

	g.loggerFrom(ctx).Info("logged in",
		"user_id", sess.Identity.ID,
		"role", sess.Identity.Role,
	)

	cp := *sess
	return &cp, nil
}

// Logout clears the session in memory and in the persister. It is safe to
// call when already anonymous.
func (g *Gateway) Logout(ctx context.Context) {
	if g.store.clear(ctx) {
		g.loggerFrom(ctx).Info("logged out")
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", strings.ToLower(fe.Field()))
	case "email":
		return "email is not a valid address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", strings.ToLower(fe.Field()), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", strings.ToLower(fe.Field()))
	}
}
