package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

const (
	pathLogin   = "/auth/login"
	pathRefresh = "/auth/refresh-token"
)

var (
	errNoSession         = errors.New("no active session")
	errNoRefreshToken    = errors.New("no refresh token available")
	errSessionChanged    = errors.New("session changed while refreshing")
	errStaleSession      = errors.New("session replaced since the request was sent")
	errMalformedResponse = errors.New("malformed token response")
)

// Refresh flight outcomes, used as the refreshes_total label.
type refreshOutcome string

const (
	outcomeSuccess   refreshOutcome = "success"
	outcomeExpired   refreshOutcome = "expired"
	outcomeDiscarded refreshOutcome = "discarded"
	outcomeFailed    refreshOutcome = "failed"
)

// Session expiry reasons, used as the session_expiries_total label.
const (
	expiryRefreshFailed   = "refresh_failed"
	expiryRefreshRejected = "refresh_rejected"
	expiryNoRefreshToken  = "no_refresh_token"
)

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenResponse struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	User         Identity `json:"user"`
}

// joinRefresh attaches the caller to the refresh flight for staleToken, which
// was read from the session at generation.
//
//   - If the session was replaced or cleared since then, errStaleSession is
//     returned and nothing is refreshed.
//   - If a flight is already running it is returned and leader is false.
//   - If the session already carries a different access token, that token
//     is returned and no flight is needed.
//   - Otherwise a new flight is installed and the caller becomes the leader.
//
// A proactive flight refreshes a token that has not been rejected yet.
func (s *SessionStore) joinRefresh(generation uint64, staleToken string, proactive bool) (f *refreshFlight, leader bool, current string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.generation != generation:
		return nil, false, "", errStaleSession
	case s.session == nil:
		return nil, false, "", errNoSession
	case s.flight != nil:
		return s.flight, false, "", nil
	case s.session.AccessToken != staleToken:
		return nil, false, s.session.AccessToken, nil
	case s.session.RefreshToken == "":
		return nil, false, "", errNoRefreshToken
	}

	f = &refreshFlight{
		done:         make(chan struct{}),
		generation:   s.generation,
		refreshToken: s.session.RefreshToken,
		proactive:    proactive,
	}
	s.flight = f
	return f, true, "", nil
}

// finishRefresh records the outcome of f, updates or clears the session, and
// wakes every waiter.
//
// A proactive flight that gets no response keeps the session: its token has
// not been rejected. Every other failure clears it.
func (s *SessionStore) finishRefresh(ctx context.Context, f *refreshFlight, tok tokenResponse, rpcErr error) refreshOutcome {
	s.mu.Lock()
	if s.flight == f {
		s.flight = nil
	}
	current := s.session != nil && s.generation == f.generation
	changed := false
	var netErr *NetworkError

	var outcome refreshOutcome
	switch {
	case rpcErr == nil && current:
		cp := *s.session
		cp.AccessToken = tok.AccessToken
		if tok.RefreshToken != "" {
			cp.RefreshToken = tok.RefreshToken
		}
		s.session = &cp
		f.accessToken = tok.AccessToken
		outcome, changed = outcomeSuccess, true
	case rpcErr == nil:
		f.err = sessionExpired(errSessionChanged)
		outcome = outcomeDiscarded
	case current && f.proactive && errors.As(rpcErr, &netErr):
		f.err = rpcErr
		outcome = outcomeFailed
	case current:
		s.session = nil
		s.generation++
		f.err = sessionExpired(rpcErr)
		outcome, changed = outcomeExpired, true
	default:
		f.err = sessionExpired(rpcErr)
		outcome = outcomeDiscarded
	}
	s.mu.Unlock()

	if changed {
		s.sync(ctx)
	}
	close(f.done)
	return outcome
}

// refreshAfter returns an access token to use in place of staleToken,
// refreshing at most once across all concurrent callers.
func (g *Gateway) refreshAfter(ctx context.Context, generation uint64, staleToken string, proactive bool) (string, error) {
	f, leader, current, err := g.store.joinRefresh(generation, staleToken, proactive)
	switch {
	case errors.Is(err, errStaleSession):
		return "", err
	case err != nil:
		g.expire(ctx, expiryNoRefreshToken, err)
		return "", sessionExpired(err)
	case f == nil:
		return current, nil
	}

	if leader {
		// Detached from the leader's context; waiters share its outcome.
		go g.runRefresh(context.WithoutCancel(ctx), f)
	} else {
		g.metrics.refreshWaiters.Inc()
	}

	select {
	case <-f.done:
	case <-ctx.Done():
		return "", &NetworkError{Target: TargetIdentity, Op: "await refresh", Err: ctx.Err()}
	}

	if f.err != nil {
		return "", f.err
	}
	return f.accessToken, nil
}

func (g *Gateway) runRefresh(ctx context.Context, f *refreshFlight) {
	log := g.loggerFrom(ctx)
	log.Debug("refreshing access token", "proactive", f.proactive)

	tok, err := g.refreshRPC(ctx, f.refreshToken)
	outcome := g.store.finishRefresh(ctx, f, tok, err)
	g.metrics.refreshes.WithLabelValues(string(outcome)).Inc()

	switch outcome {
	case outcomeSuccess:
		log.Info("access token refreshed")
	case outcomeExpired:
		g.metrics.expiries.WithLabelValues(expiryRefreshFailed).Inc()
		log.Warn("refresh failed, session expired", "error", err)
	case outcomeFailed:
		log.Warn("proactive refresh failed, keeping current token", "error", err)
	default:
		log.Info("refresh result discarded", "error", f.err)
	}
}

// refreshRPC exchanges a refresh token for a new token pair.
func (g *Gateway) refreshRPC(ctx context.Context, refreshToken string) (tokenResponse, error) {
	base, err := g.base(TargetIdentity)
	if err != nil {
		return tokenResponse{}, err
	}

	req, err := NewRequest(TargetIdentity, http.MethodPost, pathRefresh, refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return tokenResponse{}, err
	}

	resp, err := g.send(ctx, base, req)
	if err != nil {
		return tokenResponse{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return tokenResponse{}, newDomainError(TargetIdentity, resp)
	}

	var tok tokenResponse
	if err := resp.DecodeJSON(&tok); err != nil {
		return tokenResponse{}, err
	}
	if tok.AccessToken == "" {
		return tokenResponse{}, fmt.Errorf("%w: missing accessToken", errMalformedResponse)
	}
	return tok, nil
}

// expire clears the session after an authentication failure that no refresh
// flight can recover from.
func (g *Gateway) expire(ctx context.Context, reason string, cause error) {
	if g.store.clear(ctx) {
		g.metrics.expiries.WithLabelValues(reason).Inc()
		g.loggerFrom(ctx).Warn("session expired", "reason", reason, "cause", cause)
	}
}

func isRefreshCall(req Request) bool {
	return req.Target == TargetIdentity && req.Path == pathRefresh
}

func isLoginCall(req Request) bool {
	return req.Target == TargetIdentity && req.Path == pathLogin
}
