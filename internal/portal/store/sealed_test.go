package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/carematch360/portal/internal/portal/store"
	"github.com/carematch360/portal/internal/portal/store/drivers/memory"
	"github.com/carematch360/portal/internal/portal/store/storetest"
	"github.com/carematch360/portal/pkg/gateway"
)

func TestSealed(t *testing.T) {
	t.Parallel()

	s, err := store.NewSealed(memory.NewStore(), []byte("session-secret"))
	require.NoError(t, err)
	storetest.Run(t, s)
}

func TestSealed_CiphertextAtRest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	inner := memory.NewStore()
	s, err := store.NewSealed(inner, []byte("session-secret"))
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, gateway.SessionKey, []byte(`{"accessToken":"secret-token"}`)))

	raw, err := inner.Get(ctx, gateway.SessionKey)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "secret-token")

	t.Run("wrong secret fails to open", func(t *testing.T) {
		other, err := store.NewSealed(inner, []byte("another-secret"))
		require.NoError(t, err)
		_, err = other.Get(ctx, gateway.SessionKey)
		require.Error(t, err)
	})

	t.Run("record moved to another key fails to open", func(t *testing.T) {
		require.NoError(t, inner.Set(ctx, "moved", raw))
		_, err := s.Get(ctx, "moved")
		require.Error(t, err)
	})

	t.Run("missing key passes through", func(t *testing.T) {
		_, err := s.Get(ctx, "absent")
		require.ErrorIs(t, err, gateway.ErrNoRecord)
	})
}

func TestNewSealed_EmptySecret(t *testing.T) {
	t.Parallel()
	_, err := store.NewSealed(memory.NewStore(), nil)
	require.Error(t, err)
}
