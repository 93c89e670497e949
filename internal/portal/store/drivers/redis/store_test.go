package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/carematch360/portal/internal/portal/store/drivers/redis"
	"github.com/carematch360/portal/internal/portal/store/storetest"
	"github.com/carematch360/portal/pkg/gateway"
)

// setupRedisContainer starts a throwaway Redis and returns its address.
func setupRedisContainer(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return endpoint
}

func TestStore(t *testing.T) {
	addr := setupRedisContainer(t)
	ctx := context.Background()

	t.Run("conformance", func(t *testing.T) {
		s, err := redis.NewStore(ctx, redis.Config{Addr: addr, Prefix: "conformance:"})
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		storetest.Run(t, s)
	})

	t.Run("prefix isolates keys", func(t *testing.T) {
		a, err := redis.NewStore(ctx, redis.Config{Addr: addr, Prefix: "a:"})
		require.NoError(t, err)
		t.Cleanup(func() { _ = a.Close() })
		b, err := redis.NewStore(ctx, redis.Config{Addr: addr, Prefix: "b:"})
		require.NoError(t, err)
		t.Cleanup(func() { _ = b.Close() })

		require.NoError(t, a.Set(ctx, "k", []byte("from-a")))
		_, err = b.Get(ctx, "k")
		require.ErrorIs(t, err, gateway.ErrNoRecord)
	})

	t.Run("ttl expires records", func(t *testing.T) {
		s, err := redis.NewStore(ctx, redis.Config{Addr: addr, Prefix: "ttl:", TTL: time.Second})
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })

		require.NoError(t, s.Set(ctx, "k", []byte("v")))
		require.Eventually(t, func() bool {
			_, err := s.Get(ctx, "k")
			return err != nil
		}, 5*time.Second, 100*time.Millisecond)
	})
}

func TestNewStore_Unreachable(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := redis.NewStore(ctx, redis.Config{Addr: "127.0.0.1:1"})
	require.Error(t, err)
}
