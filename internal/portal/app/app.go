package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/carematch360/portal/internal/portal/store"
	"github.com/carematch360/portal/internal/portal/store/drivers/memory"
	"github.com/carematch360/portal/internal/portal/store/drivers/redis"
	"github.com/carematch360/portal/internal/portal/store/drivers/sqlite"
	"github.com/carematch360/portal/pkg/careapi"
	"github.com/carematch360/portal/pkg/gateway"
	"github.com/carematch360/portal/pkg/slogx"
)

// BuildVersion is overridden at build time via ldflags.
var BuildVersion = "v0.1.0"

// Application wires the session gateway to its persister and the backend
// clients.
type Application struct {
	cfg    Config
	logger *slog.Logger

	store    store.Store
	sessions *gateway.SessionStore
	registry *prometheus.Registry

	gateway *gateway.Gateway
	api     *careapi.Client
}

// New builds the application and rehydrates any persisted session.
func New(ctx context.Context, cfg Config) (*Application, error) {
	return NewWithLogger(ctx, cfg, slogx.New(slogx.Config{
		Service: "portal",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Output:  os.Stderr,
	}))
}

// NewWithLogger is New with a caller supplied logger.
func NewWithLogger(ctx context.Context, cfg Config, logger *slog.Logger) (*Application, error) {
	app := &Application{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}

	if err := app.initStore(ctx); err != nil {
		return nil, err
	}
	if err := app.initGateway(ctx); err != nil {
		_ = app.store.Close()
		return nil, err
	}

	return app, nil
}

// initStore opens the configured persister, sealed when a session key is set.
func (app *Application) initStore(ctx context.Context) error {
	var (
		s   store.Store
		err error
	)

	switch app.cfg.StoreDriver {
	case store.DriverMemory:
		s = memory.NewStore()
	case store.DriverSQLite, "":
		s, err = openSQLite(app.cfg.DatabaseFile)
	case store.DriverRedis:
		s, err = redis.NewStore(ctx, redis.Config{
			Addr:     app.cfg.RedisAddr,
			Password: app.cfg.RedisPassword,
			DB:       app.cfg.RedisDB,
			Prefix:   app.cfg.RedisPrefix,
			TTL:      app.cfg.RedisTTL,
		})
	default:
		return fmt.Errorf("unknown store driver %q", app.cfg.StoreDriver)
	}
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", app.cfg.StoreDriver, err)
	}

	if app.cfg.SessionKey != "" {
		sealed, err := store.NewSealed(s, []byte(app.cfg.SessionKey))
		if err != nil {
			_ = s.Close()
			return err
		}
		s = sealed
	}

	app.store = s
	app.logger.Debug("session store ready", "driver", app.cfg.StoreDriver, "sealed", app.cfg.SessionKey != "")
	return nil
}

func openSQLite(file string) (store.Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", file)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return nil, err
	}
	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return db, nil
}

func (app *Application) initGateway(ctx context.Context) error {
	sessions, err := gateway.OpenSessionStore(ctx, app.store, app.logger)
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}
	app.sessions = sessions

	gw, err := gateway.New(gateway.Config{
		Targets:   app.cfg.Targets,
		Timeout:   app.cfg.Timeout,
		RateLimit: app.cfg.RateLimit,
		RateBurst: app.cfg.RateBurst,
	}, sessions,
		gateway.WithLogger(app.logger),
		gateway.WithRegisterer(app.registry),
	)
	if err != nil {
		return err
	}

	app.gateway = gw
	app.api = careapi.New(gw)
	return nil
}

func (app *Application) Gateway() *gateway.Gateway { return app.gateway }

func (app *Application) API() *careapi.Client { return app.api }

func (app *Application) Logger() *slog.Logger { return app.logger }

// Registry holds the gateway's request and refresh counters.
func (app *Application) Registry() *prometheus.Registry { return app.registry }

// Close releases the persister.
func (app *Application) Close() error {
	if err := app.store.Close(); err != nil {
		app.logger.Error("error closing session store", "error", err)
		return err
	}
	return nil
}
