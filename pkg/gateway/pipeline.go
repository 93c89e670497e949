package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/carematch360/portal/pkg/idx"
	"github.com/carematch360/portal/pkg/jwtx"
)

// Headers set on authenticated requests.
const (
	HeaderRequestID = "X-Request-ID"
	HeaderUserID    = "X-User-Id"
	HeaderProfileID = "X-Profile-Id"
)

// Authorize returns req with the current credentials attached. An anonymous
// session leaves req unchanged.
func (g *Gateway) Authorize(req Request) Request {
	return authorizeWith(req, g.store.Snapshot())
}

func authorizeWith(req Request, sess *Session) Request {
	if sess == nil || sess.AccessToken == "" {
		return req
	}

	h := req.Header.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set("Authorization", "Bearer "+sess.AccessToken)
	if sess.Identity.ID != "" {
		h.Set(HeaderUserID, sess.Identity.ID)
	}
	if sess.ProfileReferenceID != "" {
		h.Set(HeaderProfileID, sess.ProfileReferenceID)
	}
	req.Header = h
	return req
}

// Dispatch sends req to its target with credentials attached.
//
// A 401 on an authenticated request triggers one refresh, shared with every
// other request that hits a 401 at the same time, and a single retry with the
// new token. If the refresh fails the session is cleared and every waiting
// caller gets ErrSessionExpired. A 401 that arrives after the session was
// replaced or cleared is returned as is. Other non-2xx responses are returned
// as *DomainError and transport failures as *NetworkError.
func (g *Gateway) Dispatch(ctx context.Context, req Request) (*Response, error) {
	base, err := g.base(req.Target)
	if err != nil {
		return nil, err
	}

	gen, sess := g.store.generationOf()
	token := ""
	if sess != nil {
		token = sess.AccessToken
	}

	if token != "" && !isRefreshCall(req) && g.expiresSoon(token) {
		if sess, token, err = g.refreshEarly(ctx, gen, sess, token); err != nil {
			return nil, err
		}
	}

	resp, err := g.send(ctx, base, authorizeWith(req, sess))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return g.finish(req.Target, resp)
	}

	switch {
	case isRefreshCall(req):
		derr := newDomainError(req.Target, resp)
		g.expire(ctx, expiryRefreshRejected, derr)
		return nil, sessionExpired(derr)
	case token == "", isLoginCall(req):
		return nil, newDomainError(req.Target, resp)
	}

	fresh, err := g.refreshAfter(ctx, gen, token, false)
	if errors.Is(err, errStaleSession) {
		return nil, newDomainError(req.Target, resp)
	}
	if err != nil {
		return nil, err
	}
	if sess, err = g.sessionWith(gen, fresh); err != nil {
		return nil, newDomainError(req.Target, resp)
	}

	g.loggerFrom(ctx).Debug("retrying after refresh",
		"target", req.Target, "method", req.Method, "path", req.Path)

	resp, err = g.send(ctx, base, authorizeWith(req, sess))
	if err != nil {
		return nil, err
	}
	return g.finish(req.Target, resp)
}

// refreshEarly replaces a JWT that is about to expire before it is sent. When
// the refresh gets no response the current token is still valid and is kept.
func (g *Gateway) refreshEarly(ctx context.Context, gen uint64, sess *Session, token string) (*Session, string, error) {
	fresh, err := g.refreshAfter(ctx, gen, token, true)
	var netErr *NetworkError
	switch {
	case errors.Is(err, errStaleSession):
		return nil, "", sessionExpired(err)
	case err != nil && !errors.Is(err, ErrSessionExpired) && errors.As(err, &netErr):
		return sess, token, nil
	case err != nil:
		return nil, "", err
	}

	next, err := g.sessionWith(gen, fresh)
	if err != nil {
		return nil, "", sessionExpired(err)
	}
	return next, fresh, nil
}

func (g *Gateway) finish(target Target, resp *Response) (*Response, error) {
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, newDomainError(target, resp)
	}
	return resp, nil
}

// sessionWith returns the current session carrying token, provided it is
// still the session read at gen.
func (g *Gateway) sessionWith(gen uint64, token string) (*Session, error) {
	current, sess := g.store.generationOf()
	if sess == nil || current != gen {
		return nil, errStaleSession
	}
	sess.AccessToken = token
	return sess, nil
}

// expiresSoon reports whether a JWT access token is within the leeway of its
// exp claim. Opaque tokens never expire early.
func (g *Gateway) expiresSoon(token string) bool {
	if g.leeway < 0 {
		return false
	}
	exp, ok := jwtx.PeekExpiry(token)
	if !ok {
		return false
	}
	return time.Now().Add(g.leeway).After(exp)
}

// send performs a single HTTP exchange and reads the whole body.
func (g *Gateway) send(ctx context.Context, base *url.URL, req Request) (*Response, error) {
	op := req.Method + " " + req.Path
	netErr := func(err error) error {
		g.metrics.observe(req.Target, 0)
		return &NetworkError{Target: req.Target, Op: op, Err: err}
	}

	if lim, ok := g.limiters[req.Target]; ok {
		if err := lim.Wait(ctx); err != nil {
			return nil, netErr(err)
		}
	}

	rawPath := base.EscapedPath() + req.Path
	path, err := url.PathUnescape(rawPath)
	if err != nil {
		return nil, fmt.Errorf("invalid request path %q: %w", req.Path, err)
	}
	u := *base
	u.Path, u.RawPath = path, rawPath
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, vs := range req.Header {
		httpReq.Header[k] = append([]string(nil), vs...)
	}
	if httpReq.Header.Get(HeaderRequestID) == "" {
		httpReq.Header.Set(HeaderRequestID, idx.New().String())
	}
	if body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}

	start := time.Now()
	httpResp, err := g.http.Do(httpReq)
	if err != nil {
		return nil, netErr(err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, netErr(err)
	}

	g.metrics.observe(req.Target, httpResp.StatusCode)
	g.loggerFrom(ctx).Debug("backend call",
		"target", req.Target,
		"method", req.Method,
		"path", req.Path,
		"status", httpResp.StatusCode,
		"req_id", httpReq.Header.Get(HeaderRequestID),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       raw,
	}, nil
}
