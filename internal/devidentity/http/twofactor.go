package http

import (
	"errors"
	"net/http"

	"github.com/carematch360/portal/internal/devidentity/service"
	"github.com/carematch360/portal/pkg/httpx"
	"github.com/carematch360/portal/pkg/slogx"
)

// CodeRequest carries a TOTP code.
type CodeRequest struct {
	Code string `json:"code"`
}

// TwoFactorHandler serves the /auth/2fa endpoints.
type TwoFactorHandler struct {
	TwoFactorService *service.TwoFactorService
}

// HandleSetup handles POST /auth/2fa/setup
//
//	@Summary		Start two-factor enrolment
//	@Description	Generates a TOTP secret and otpauth URL. Two-factor is enforced only after /auth/2fa/enable.
//	@Tags			TwoFactor
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	service.TwoFactorSetup
//	@Failure		409	{object}	httpx.ErrorBody	"Already enabled"
//	@Router			/auth/2fa/setup [post].
func (h *TwoFactorHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	setup, err := h.TwoFactorService.Setup(r.Context(), httpx.UserIDFromContext(r.Context()))
	if err != nil {
		writeTwoFactorError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, setup)
}

// HandleEnable handles POST /auth/2fa/enable
//
//	@Summary		Confirm and enable two-factor
//	@Tags			TwoFactor
//	@Security		BearerAuth
//	@Accept			json
//	@Param			request	body	CodeRequest	true	"Current TOTP code"
//	@Success		204		"Enabled"
//	@Failure		400		{object}	httpx.ErrorBody	"Invalid code or not set up"
//	@Router			/auth/2fa/enable [post].
func (h *TwoFactorHandler) HandleEnable(w http.ResponseWriter, r *http.Request) {
	var req CodeRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	if err := h.TwoFactorService.Enable(r.Context(), httpx.UserIDFromContext(r.Context()), req.Code); err != nil {
		writeTwoFactorError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDisable handles POST /auth/2fa/disable
//
//	@Summary		Disable two-factor
//	@Tags			TwoFactor
//	@Security		BearerAuth
//	@Accept			json
//	@Param			request	body	CodeRequest	true	"Current TOTP code"
//	@Success		204		"Disabled"
//	@Failure		400		{object}	httpx.ErrorBody	"Invalid code or not enabled"
//	@Router			/auth/2fa/disable [post].
func (h *TwoFactorHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	var req CodeRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	if err := h.TwoFactorService.Disable(r.Context(), httpx.UserIDFromContext(r.Context()), req.Code); err != nil {
		writeTwoFactorError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleStatus handles GET /auth/2fa/status
//
//	@Summary		Two-factor status
//	@Tags			TwoFactor
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	service.TwoFactorStatus
//	@Router			/auth/2fa/status [get].
func (h *TwoFactorHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.TwoFactorService.Status(httpx.UserIDFromContext(r.Context()))
	if err != nil {
		writeTwoFactorError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, status)
}

func writeTwoFactorError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrTwoFactorAlreadyEnabled):
		httpx.WriteError(w, http.StatusConflict, "TWO_FACTOR_ALREADY_ENABLED", err.Error())
	case errors.Is(err, service.ErrInvalidTOTPCode):
		httpx.WriteError(w, http.StatusBadRequest, "INVALID_TWO_FACTOR_CODE", err.Error())
	case errors.Is(err, service.ErrTwoFactorNotEnrolled), errors.Is(err, service.ErrTwoFactorNotEnabled):
		httpx.WriteError(w, http.StatusBadRequest, "TWO_FACTOR_NOT_ENABLED", err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		httpx.WriteError(w, http.StatusNotFound, "NOT_FOUND", "user not found")
	default:
		slogx.FromContext(r.Context()).Error("two-factor request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}
