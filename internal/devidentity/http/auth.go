package http

import (
	"errors"
	"net/http"

	"github.com/carematch360/portal/internal/devidentity/service"
	"github.com/carematch360/portal/pkg/httpx"
	"github.com/carematch360/portal/pkg/slogx"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	TwoFactorCode string `json:"twoFactorCode,omitempty"`
}

// RefreshRequest is the body of POST /auth/refresh-token.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// AuthHandler serves login, refresh and logout.
type AuthHandler struct {
	TokenService *service.TokenService
}

// HandleLogin handles POST /auth/login
//
//	@Summary		Log in with email and password
//	@Description	Returns an access token, a refresh token and the user. Accounts with two-factor enabled must also send twoFactorCode.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		LoginRequest		true	"Credentials"
//	@Success		200		{object}	service.TokenPair	"Token pair and user"
//	@Failure		400		{object}	httpx.ErrorBody		"Malformed body"
//	@Failure		401		{object}	httpx.ErrorBody		"INVALID_CREDENTIALS or TWO_FACTOR_REQUIRED"
//	@Failure		403		{object}	httpx.ErrorBody		"ACCOUNT_UNVERIFIED or ACCOUNT_INACTIVE"
//	@Failure		429		{object}	httpx.ErrorBody		"Too many attempts"
//	@Router			/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	pair, err := h.TokenService.Login(r.Context(), req.Email, req.Password, req.TwoFactorCode)
	switch {
	case err == nil:
		httpx.NoCache(w)
		httpx.WriteJSON(w, http.StatusOK, pair)
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	case errors.Is(err, service.ErrTwoFactorRequired):
		httpx.WriteError(w, http.StatusUnauthorized, "TWO_FACTOR_REQUIRED", "Two-factor code required")
	case errors.Is(err, service.ErrAccountUnverified):
		httpx.WriteError(w, http.StatusForbidden, "ACCOUNT_UNVERIFIED", "Email address not verified")
	case errors.Is(err, service.ErrAccountInactive):
		httpx.WriteError(w, http.StatusForbidden, "ACCOUNT_INACTIVE", "Account is deactivated")
	default:
		slogx.FromContext(r.Context()).Error("login failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

// HandleRefresh handles POST /auth/refresh-token
//
//	@Summary		Rotate a refresh token
//	@Description	Exchanges a refresh token for a new access and refresh token. The presented token stops working.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RefreshRequest		true	"Refresh token"
//	@Success		200		{object}	service.TokenPair	"New token pair"
//	@Failure		401		{object}	httpx.ErrorBody		"INVALID_REFRESH_TOKEN"
//	@Router			/auth/refresh-token [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil || req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "refreshToken is required")
		return
	}

	pair, err := h.TokenService.Refresh(r.Context(), req.RefreshToken)
	switch {
	case err == nil:
		httpx.NoCache(w)
		httpx.WriteJSON(w, http.StatusOK, pair)
	case errors.Is(err, service.ErrInvalidRefreshToken), errors.Is(err, service.ErrAccountInactive):
		httpx.WriteError(w, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "Refresh token is invalid or expired")
	default:
		slogx.FromContext(r.Context()).Error("refresh failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

// HandleLogout handles POST /auth/logout
//
//	@Summary		Revoke the caller's refresh tokens
//	@Tags			Auth
//	@Security		BearerAuth
//	@Success		204	"Revoked"
//	@Failure		401	{object}	httpx.ErrorBody	"Invalid or missing access token"
//	@Router			/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	claims, _ := httpx.ClaimsFromContext(r.Context())
	h.TokenService.RevokeUser(claims.Subject)
	slogx.FromContext(r.Context()).Info("refresh tokens revoked", "user_id", claims.Subject, "amr", claims.AMR)
	w.WriteHeader(http.StatusNoContent)
}
