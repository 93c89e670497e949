package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/carematch360/portal/pkg/slogx"
)

const (
	defaultTimeout = 10 * time.Second
	defaultLeeway  = 30 * time.Second
)

// Config describes the backends the gateway talks to.
type Config struct {
	// Targets maps each backend to its base URL. Targets without an entry
	// fail with ErrNotConfigured.
	Targets map[Target]string

	// Timeout bounds every outbound request. Zero means 10s.
	Timeout time.Duration

	// RateLimit is the per-target request rate in requests per second.
	// Zero disables limiting.
	RateLimit float64
	RateBurst int

	// ExpiryLeeway is how close to its exp claim an access token may get
	// before it is refreshed ahead of use. Zero means 30s, negative disables.
	ExpiryLeeway time.Duration
}

// Option customises a Gateway.
type Option func(*Gateway)

// WithHTTPClient overrides the HTTP client. A zero Timeout is replaced by
// Config.Timeout on a copy of c.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.http = c }
}

// WithLogger sets the base logger. A logger found in a call's context wins.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// WithRegisterer registers the gateway's metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(g *Gateway) { g.registerer = reg }
}

// Gateway is the single funnel through which every backend call flows.
// It attaches credentials, refreshes them on 401 and normalises errors.
type Gateway struct {
	store    *SessionStore
	targets  map[Target]*url.URL
	limiters map[Target]*rate.Limiter
	leeway   time.Duration

	http       *http.Client
	logger     *slog.Logger
	registerer prometheus.Registerer
	metrics    *metrics
	validate   *validator.Validate
}

// New builds a Gateway over store.
func New(cfg Config, store *SessionStore, opts ...Option) (*Gateway, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	leeway := cfg.ExpiryLeeway
	if leeway == 0 {
		leeway = defaultLeeway
	}

	g := &Gateway{
		store:    store,
		targets:  make(map[Target]*url.URL, len(cfg.Targets)),
		limiters: make(map[Target]*rate.Limiter, len(cfg.Targets)),
		leeway:   leeway,
		http:     &http.Client{Timeout: timeout},
		logger:   slog.Default(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.http.Timeout == 0 {
		c := *g.http
		c.Timeout = timeout
		g.http = &c
	}
	g.metrics = newMetrics(g.registerer)

	for target, raw := range cfg.Targets {
		if _, err := ParseTarget(string(target)); err != nil {
			return nil, err
		}
		u, err := url.Parse(strings.TrimSuffix(raw, "/"))
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid base url for %s: %q", target, raw)
		}
		g.targets[target] = u

		if cfg.RateLimit > 0 {
			burst := cfg.RateBurst
			if burst <= 0 {
				burst = 1
			}
			g.limiters[target] = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
		}
	}

	return g, nil
}

// Store returns the session store the gateway reads from.
func (g *Gateway) Store() *SessionStore { return g.store }

// CurrentSession returns a copy of the session or nil when anonymous.
func (g *Gateway) CurrentSession() *Session { return g.store.Snapshot() }

// State reports the coarse session state.
func (g *Gateway) State() State { return g.store.State() }

func (g *Gateway) base(target Target) (*url.URL, error) {
	if _, err := ParseTarget(string(target)); err != nil {
		return nil, err
	}
	u, ok := g.targets[target]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotConfigured, target)
	}
	return u, nil
}

func (g *Gateway) loggerFrom(ctx context.Context) *slog.Logger {
	if l := slogx.FromContext(ctx); l != slog.Default() {
		return l
	}
	return g.logger
}
