package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
)

// Target names one of the backend services the gateway can dispatch to.
type Target string

const (
	TargetIdentity     Target = "identity"
	TargetProfile      Target = "profile"
	TargetMatch        Target = "match"
	TargetBilling      Target = "billing"
	TargetNotification Target = "notification"
)

// Targets lists every known backend in a stable order.
var Targets = []Target{
	TargetIdentity,
	TargetProfile,
	TargetMatch,
	TargetBilling,
	TargetNotification,
}

// ParseTarget maps a string to a known Target.
func ParseTarget(s string) (Target, error) {
	t := Target(s)
	if !slices.Contains(Targets, t) {
		return "", fmt.Errorf("%w: %q", ErrUnknownTarget, s)
	}
	return t, nil
}

// Role is the principal's role on the platform.
type Role string

const (
	RolePatient             Role = "PATIENT"
	RoleRelative            Role = "RELATIVE"
	RoleResidentialProvider Role = "RESIDENTIAL_PROVIDER"
	RoleAmbulatoryProvider  Role = "AMBULATORY_PROVIDER"
	RoleAdmin               Role = "ADMIN"
	RoleSuperAdmin          Role = "SUPER_ADMIN"
)

// Valid reports whether r is one of the fixed roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleRelative, RoleResidentialProvider,
		RoleAmbulatoryProvider, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsProvider reports whether r is a care provider role.
func (r Role) IsProvider() bool {
	return r == RoleResidentialProvider || r == RoleAmbulatoryProvider
}

// IsAdmin reports whether r is an administrative role.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Identity is the authenticated principal.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IsZero reports whether no identity is set.
func (i Identity) IsZero() bool { return i.ID == "" && i.Email == "" && i.Role == "" }

// Session is the authentication state shared by every outbound request.
// AccessToken and Identity are always set and cleared together.
type Session struct {
	Identity           Identity `json:"identity"`
	AccessToken        string   `json:"accessToken"`
	RefreshToken       string   `json:"refreshToken"`
	ProfileReferenceID string   `json:"profileReferenceId,omitempty"`
}

// valid checks the pairing invariant between the access token and identity.
func (s *Session) valid() bool {
	if s == nil {
		return false
	}
	return s.AccessToken != "" && s.Identity.ID != "" && s.Identity.Role.Valid()
}

// Credentials are the user supplied login inputs.
type Credentials struct {
	Email         string `json:"email"                   validate:"required,email"`
	Password      string `json:"password"                validate:"required,min=4"`
	TwoFactorCode string `json:"twoFactorCode,omitempty" validate:"omitempty,numeric,len=6"`
}

// State is the coarse session state exposed to callers.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticated
	StateRefreshingPending
	// StateExpired only exists while a refresh failure fans out to waiters.
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshingPending:
		return "refreshing"
	case StateExpired:
		return "expired"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Request describes an outbound call to one backend target.
type Request struct {
	Target Target
	Method string
	// Path is appended to the target's base URL. It is in escaped form, so
	// callers must escape dynamic segments with url.PathEscape.
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// NewRequest builds a Request, JSON encoding body when it is not already raw bytes.
func NewRequest(target Target, method, path string, body any) (Request, error) {
	req := Request{Target: target, Method: method, Path: path}

	switch b := body.(type) {
	case nil:
	case []byte:
		req.Body = b
	case json.RawMessage:
		req.Body = b
	default:
		raw, err := json.Marshal(body)
		if err != nil {
			return Request{}, fmt.Errorf("failed to encode request body: %w", err)
		}
		req.Body = raw
	}

	return req, nil
}

// WithQuery returns a copy of r with the given query parameters.
func (r Request) WithQuery(q url.Values) Request {
	r.Query = q
	return r
}

// WithHeader returns a copy of r with key set to value.
func (r Request) WithHeader(key, value string) Request {
	h := r.Header.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set(key, value)
	r.Header = h
	return r
}

// Response is a fully read backend response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// DecodeJSON unmarshals the response body into target.
func (r *Response) DecodeJSON(target any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("failed to decode response: empty body")
	}
	if err := json.Unmarshal(r.Body, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
