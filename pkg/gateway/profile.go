package gateway

import (
	"context"
	"fmt"
	"net/http"
)

type profileResponse struct {
	ID string `json:"id"`
}

// ResolveProfile returns the caller's profile id on the profile backend,
// fetching and persisting it on first use. Admin roles have no profile.
func (g *Gateway) ResolveProfile(ctx context.Context) (string, error) {
	generation, sess := g.store.generationOf()
	if sess == nil {
		return "", ErrAnonymous
	}
	if sess.ProfileReferenceID != "" {
		return sess.ProfileReferenceID, nil
	}

	var path string
	switch {
	case sess.Identity.Role == RolePatient, sess.Identity.Role == RoleRelative:
		path = "/patients/me"
	case sess.Identity.Role.IsProvider():
		path = "/providers/me"
	default:
		return "", fmt.Errorf("%w: %s", ErrNoProfile, sess.Identity.Role)
	}

	resp, err := g.Dispatch(ctx, Request{Target: TargetProfile, Method: http.MethodGet, Path: path})
	if err != nil {
		return "", err
	}

	var p profileResponse
	if err := resp.DecodeJSON(&p); err != nil {
		return "", err
	}
	if p.ID == "" {
		return "", fmt.Errorf("%w: profile without id", errMalformedResponse)
	}

	// A login or logout during the lookup makes the result stale; it is
	// returned to the caller but not stored.
	if g.store.update(ctx, generation, func(s *Session) { s.ProfileReferenceID = p.ID }) {
		g.loggerFrom(ctx).Debug("profile resolved", "profile_id", p.ID)
	}
	return p.ID, nil
}
