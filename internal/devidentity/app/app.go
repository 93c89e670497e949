package app

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/carematch360/portal/internal/devidentity/http"
	"github.com/carematch360/portal/internal/devidentity/service"
	"github.com/carematch360/portal/pkg/cryptox"
	"github.com/carematch360/portal/pkg/jwtx"
	"github.com/carematch360/portal/pkg/slogx"
)

// BuildVersion is overridden at build time via ldflags.
var BuildVersion = "v0.1.0"

const (
	// Audience is the aud claim on every access token.
	Audience = "carematch360-portal"

	// APIPrefix is the path prefix the backends are mounted under.
	APIPrefix = "/api/v1"
)

// Application is the development identity server with its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	signer   *jwtx.EdDSASigner
	verifier *jwtx.EdDSAVerifier

	users               *service.Directory
	tokenService        *service.TokenService
	twoFactorService    *service.TwoFactorService
	housekeepingService *service.HousekeepingService

	server  *http.Server
	router  *httpapi.Router
	handler http.Handler
}

// New builds the application with the default seed accounts.
func New(cfg Config) (*Application, error) {
	return NewWithLogger(cfg, slogx.New(slogx.Config{
		Service: "dev-identity",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	}))
}

// NewWithLogger is New with a caller supplied logger.
func NewWithLogger(cfg Config, logger *slog.Logger) (*Application, error) {
	app := &Application{cfg: cfg, logger: logger}

	signer, err := LoadSigningKey(cfg.KeyFile, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize signing key: %w", err)
	}
	app.signer = signer
	app.verifier = jwtx.NewVerifierEdDSA(
		map[string]ed25519.PublicKey{signer.KID(): signer.Public()},
		cfg.Issuer,
		[]string{Audience},
	)

	if err := app.initServices(); err != nil {
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

func (app *Application) initServices() error {
	hasher := cryptox.NewPasswordHasher(app.cfg.Pepper)

	app.users = service.NewDirectory()
	if err := app.users.Seed(hasher, app.cfg.Password, service.DefaultSeed); err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	app.logger.Info("seeded accounts", "count", len(service.DefaultSeed))

	app.tokenService = &service.TokenService{
		Users:      app.users,
		Hasher:     hasher,
		Signer:     app.signer,
		Issuer:     app.cfg.Issuer,
		Audience:   []string{Audience},
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}
	app.twoFactorService = &service.TwoFactorService{
		Users:  app.users,
		Issuer: "CareMatch360",
	}
	app.housekeepingService = service.NewHousekeepingService(app.tokenService, app.logger, app.cfg.HousekeepingInterval)
	return nil
}

func (app *Application) initHTTP() {
	app.router = httpapi.NewRouter(app.verifier, BuildVersion, app.logger)
	app.router.LoginLimit = app.cfg.LoginLimit
	app.router.Users = app.users
	app.router.TokenService = app.tokenService
	app.router.TwoFactorService = app.twoFactorService
	app.router.ApplyRoutes()

	// Routes answer at the root and under /api/v1, where the real backends live.
	root := http.NewServeMux()
	root.Handle(APIPrefix+"/", http.StripPrefix(APIPrefix, app.router))
	root.Handle("/", app.router)
	app.handler = root

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           app.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Handler returns the root HTTP handler.
func (app *Application) Handler() http.Handler { return app.handler }

// Run starts the server and blocks until a shutdown signal or server error.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("dev identity starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		app.housekeepingService.Stop()
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests and stops background work.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down dev identity...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	var err error
	if err = app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if cerr := app.server.Close(); cerr != nil {
			app.logger.Error("error closing server", "error", cerr)
		}
	}

	app.housekeepingService.Stop()

	app.logger.Info("dev identity stopped")
	return err
}
