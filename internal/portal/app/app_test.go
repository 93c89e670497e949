package app_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	devapp "github.com/carematch360/portal/internal/devidentity/app"
	"github.com/carematch360/portal/internal/portal/app"
	"github.com/carematch360/portal/internal/portal/store"
	"github.com/carematch360/portal/internal/portal/store/drivers/sqlite"
	"github.com/carematch360/portal/pkg/gateway"
	"github.com/carematch360/portal/pkg/httpx"
	"github.com/carematch360/portal/pkg/slogx"
)

func identityURL(t *testing.T) string {
	t.Helper()

	dev, err := devapp.NewWithLogger(devapp.Config{
		Issuer:              "test-issuer",
		Password:            "validpass",
		AccessTTL:           time.Minute,
		RefreshTTL:          time.Hour,
		LoginLimit:          httpx.RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000},
		ShutdownGracePeriod: time.Second,
	}, slogx.Discard())
	require.NoError(t, err)

	srv := httptest.NewServer(dev.Handler())
	t.Cleanup(srv.Close)
	return srv.URL + devapp.APIPrefix
}

func testConfig(url, driver, file string) app.Config {
	return app.Config{
		Targets:      map[gateway.Target]string{gateway.TargetIdentity: url},
		Timeout:      5 * time.Second,
		StoreDriver:  driver,
		DatabaseFile: file,
	}
}

func open(t *testing.T, cfg app.Config) *app.Application {
	t.Helper()
	a, err := app.NewWithLogger(context.Background(), cfg, slogx.Discard())
	require.NoError(t, err)
	return a
}

func TestSessionSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	url := identityURL(t)
	file := filepath.Join(t.TempDir(), "portal.db")

	first := open(t, testConfig(url, store.DriverSQLite, file))
	sess, err := first.Gateway().Login(ctx, gateway.Credentials{Email: "patient@test.com", Password: "validpass"})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := open(t, testConfig(url, store.DriverSQLite, file))
	t.Cleanup(func() { _ = second.Close() })

	require.Equal(t, gateway.StateAuthenticated, second.Gateway().State())
	require.Equal(t, sess, second.Gateway().CurrentSession())

	_, err = second.API().Users.Me(ctx)
	require.NoError(t, err)
	series, err := testutil.GatherAndCount(second.Registry(), "portal_gateway_requests_total")
	require.NoError(t, err)
	require.Positive(t, series)

	second.Gateway().Logout(ctx)
	require.NoError(t, second.Close())

	third := open(t, testConfig(url, store.DriverSQLite, file))
	t.Cleanup(func() { _ = third.Close() })
	require.Nil(t, third.Gateway().CurrentSession())
}

func TestSealedSessionAtRest(t *testing.T) {
	ctx := context.Background()
	url := identityURL(t)
	file := filepath.Join(t.TempDir(), "portal.db")

	cfg := testConfig(url, store.DriverSQLite, file)
	cfg.SessionKey = "correct horse battery staple"

	a := open(t, cfg)
	sess, err := a.Gateway().Login(ctx, gateway.Credentials{Email: "res@test.com", Password: "validpass"})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	raw, err := sqlite.NewStore("file:" + file)
	require.NoError(t, err)
	sealed, err := raw.Get(ctx, gateway.SessionKey)
	require.NoError(t, err)
	require.NotContains(t, string(sealed), sess.RefreshToken)
	require.NoError(t, raw.Close())

	t.Run("wrong key is refused", func(t *testing.T) {
		cfg := cfg
		cfg.SessionKey = "another key"
		_, err := app.NewWithLogger(ctx, cfg, slogx.Discard())
		require.ErrorContains(t, err, "failed to restore session")
	})
}

func TestMemoryDriver(t *testing.T) {
	a := open(t, testConfig(identityURL(t), store.DriverMemory, ""))
	t.Cleanup(func() { _ = a.Close() })

	_, err := a.Gateway().Login(context.Background(), gateway.Credentials{Email: "admin@test.com", Password: "validpass"})
	require.NoError(t, err)
	require.Equal(t, gateway.RoleAdmin, a.Gateway().CurrentSession().Identity.Role)
}

func TestNewErrors(t *testing.T) {
	ctx := context.Background()

	_, err := app.NewWithLogger(ctx, testConfig("http://localhost:1", "etcd", ""), slogx.Discard())
	require.ErrorContains(t, err, `unknown store driver "etcd"`)

	_, err = app.NewWithLogger(ctx, testConfig("not a url", store.DriverMemory, ""), slogx.Discard())
	require.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("MATCH_API_URL", "https://match.example.com/api/v1")
	t.Setenv("PORTAL_TIMEOUT", "3")
	t.Setenv("PORTAL_STORE_DRIVER", "redis")
	t.Setenv("PORTAL_RATE_LIMIT_RPS", "2.5")

	cfg := app.LoadConfig()
	require.Equal(t, "https://match.example.com/api/v1", cfg.Targets[gateway.TargetMatch])
	require.Equal(t, "http://localhost:8001/api/v1", cfg.Targets[gateway.TargetIdentity])
	require.Len(t, cfg.Targets, len(gateway.Targets))
	require.Equal(t, 3*time.Second, cfg.Timeout)
	require.Equal(t, store.DriverRedis, cfg.StoreDriver)
	require.InDelta(t, 2.5, cfg.RateLimit, 0)

	t.Run("durable sqlite store by default", func(t *testing.T) {
		t.Setenv("PORTAL_STORE_DRIVER", "")
		require.Equal(t, store.DriverSQLite, app.LoadConfig().StoreDriver)
	})
}
