package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrInvalidCredentials = errors.New("gateway: invalid credentials")
	ErrAccountUnverified  = errors.New("gateway: account unverified")
	ErrTwoFactorRequired  = errors.New("gateway: two-factor code required")
	ErrSessionExpired     = errors.New("gateway: session expired")

	ErrNetwork       = errors.New("gateway: network error")
	ErrUnknownTarget = errors.New("gateway: unknown target")
	ErrNotConfigured = errors.New("gateway: target not configured")
	ErrNoProfile     = errors.New("gateway: role has no profile")
	ErrAnonymous     = errors.New("gateway: not logged in")
)

// AuthErrorKind classifies authentication failures.
type AuthErrorKind string

const (
	KindInvalidCredentials AuthErrorKind = "InvalidCredentials"
	KindAccountUnverified  AuthErrorKind = "AccountUnverified"
	KindTwoFactorRequired  AuthErrorKind = "TwoFactorRequired"
	KindSessionExpired     AuthErrorKind = "SessionExpired"
)

// AuthError is returned by Login and by Dispatch when the session cannot be
// recovered. It matches the corresponding sentinel with errors.Is.
type AuthError struct {
	Kind    AuthErrorKind
	Message string
	Err     error // underlying cause, if any
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AuthError) Unwrap() []error {
	errs := []error{e.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (e *AuthError) sentinel() error {
	switch e.Kind {
	case KindInvalidCredentials:
		return ErrInvalidCredentials
	case KindAccountUnverified:
		return ErrAccountUnverified
	case KindTwoFactorRequired:
		return ErrTwoFactorRequired
	default:
		return ErrSessionExpired
	}
}

func sessionExpired(cause error) *AuthError {
	return &AuthError{Kind: KindSessionExpired, Message: "please log in again", Err: cause}
}

// NetworkError reports a transport level failure: no response was received.
type NetworkError struct {
	Target Target
	Op     string // e.g. "GET /patients/me"
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Target, e.Op, e.Err)
}

func (e *NetworkError) Unwrap() []error { return []error{ErrNetwork, e.Err} }

// DomainError is a non-2xx backend response passed through verbatim.
type DomainError struct {
	Target     Target
	StatusCode int
	Code       string
	Message    string
	Body       []byte
}

func (e *DomainError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Target, e.StatusCode, msg)
}

// errorBody is the backends' error envelope: {"error":{"message":"...","code":"..."}}.
// Some backends send a flat {"message":"..."} instead.
type errorBody struct {
	Error *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
	Message string `json:"message"`
}

// parseErrorBody extracts the code and message from an error envelope.
func parseErrorBody(body []byte) (code, message string) {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return "", strings.TrimSpace(string(body))
	}
	if eb.Error != nil {
		return eb.Error.Code, eb.Error.Message
	}
	return "", eb.Message
}

func newDomainError(target Target, resp *Response) *DomainError {
	code, msg := parseErrorBody(resp.Body)
	return &DomainError{
		Target:     target,
		StatusCode: resp.StatusCode,
		Code:       code,
		Message:    msg,
		Body:       resp.Body,
	}
}

// classifyLoginError maps a rejected login response onto the AuthError taxonomy.
// Server errors stay DomainErrors.
func classifyLoginError(resp *Response) error {
	code, msg := parseErrorBody(resp.Body)
	lower := strings.ToLower(code + " " + msg)

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return newDomainError(TargetIdentity, resp)
	case strings.Contains(lower, "two_factor"), strings.Contains(lower, "two-factor"),
		strings.Contains(lower, "2fa"):
		return &AuthError{Kind: KindTwoFactorRequired, Message: msg}
	case strings.Contains(lower, "unverified"), strings.Contains(lower, "not verified"):
		return &AuthError{Kind: KindAccountUnverified, Message: msg}
	case resp.StatusCode >= http.StatusBadRequest:
		return &AuthError{Kind: KindInvalidCredentials, Message: msg}
	default:
		return newDomainError(TargetIdentity, resp)
	}
}
