package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/carematch360/portal/internal/devidentity/service"
	"github.com/carematch360/portal/pkg/httpx"
	"github.com/carematch360/portal/pkg/jwtx"
	"github.com/carematch360/portal/pkg/slogx"

	_ "github.com/carematch360/portal/api/devidentity" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	// LoginLimit throttles login and refresh attempts per client IP.
	LoginLimit httpx.RateLimitConfig

	Users            *service.Directory
	TokenService     *service.TokenService
	TwoFactorService *service.TwoFactorService
}

func NewRouter(verifier jwtx.Verifier, buildVersion string, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		LoginLimit:   httpx.StrictLimit,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUsers()
	r.registerTwoFactor()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			CareMatch360 Development Identity API
//	@version		0.1.0
//	@description	Stand-in for the identity backend used when running the portal locally.
//	@description	Access tokens are EdDSA-signed JWTs; refresh tokens are opaque and rotate on every use.
//
//	@host						localhost:8001
//	@BasePath					/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{TokenService: r.TokenService}

	r.Mux.Handle("POST /auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(r.LoginLimit),
		),
	)
	r.Mux.Handle("POST /auth/refresh-token",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(r.LoginLimit),
		),
	)
	r.Mux.Handle("POST /auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.AuthnMiddleware(r.verifier),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{Users: r.Users}

	r.Mux.Handle("GET /users/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			httpx.AuthnMiddleware(r.verifier),
		),
	)
	r.Mux.Handle("GET /users/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleByID),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireRole("ADMIN", "SUPER_ADMIN"),
		),
	)
}

func (r *Router) registerTwoFactor() {
	h := &TwoFactorHandler{TwoFactorService: r.TwoFactorService}

	secured := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn, httpx.AuthnMiddleware(r.verifier))
	}

	r.Mux.Handle("POST /auth/2fa/setup", secured(h.HandleSetup))
	r.Mux.Handle("POST /auth/2fa/enable", secured(h.HandleEnable))
	r.Mux.Handle("POST /auth/2fa/disable", secured(h.HandleDisable))
	r.Mux.Handle("GET /auth/2fa/status", secured(h.HandleStatus))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
}
