// Package storetest holds behaviour checks shared by every store driver.
package storetest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/carematch360/portal/internal/portal/store"
	"github.com/carematch360/portal/pkg/gateway"
	"github.com/carematch360/portal/pkg/slogx"
)

// Run exercises s as a gateway persister: basic key-value semantics and a
// full session round-trip through a rehydrating SessionStore.
func Run(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, s.Ping(ctx))
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := s.Get(ctx, "absent")
		require.ErrorIs(t, err, gateway.ErrNoRecord)
	})

	t.Run("set get overwrite delete", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "k", []byte("v1")))
		got, err := s.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, []byte("v1"), got)

		require.NoError(t, s.Set(ctx, "k", []byte("v2")))
		got, err = s.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, []byte("v2"), got)

		require.NoError(t, s.Delete(ctx, "k"))
		_, err = s.Get(ctx, "k")
		require.ErrorIs(t, err, gateway.ErrNoRecord)

		require.NoError(t, s.Delete(ctx, "k"), "deleting a missing key is not an error")
	})

	t.Run("session survives reopen", func(t *testing.T) {
		sess := gateway.Session{
			Identity:           gateway.Identity{ID: "user-1", Email: "patient@test.com", Role: gateway.RolePatient},
			AccessToken:        "access-1",
			RefreshToken:       "refresh-1",
			ProfileReferenceID: "patient-42",
		}
		raw, err := json.Marshal(sess)
		require.NoError(t, err)
		require.NoError(t, s.Set(ctx, gateway.SessionKey, raw))

		reopened, err := gateway.OpenSessionStore(ctx, s, slogx.Discard())
		require.NoError(t, err)
		require.Equal(t, &sess, reopened.Snapshot())
		require.Equal(t, gateway.StateAuthenticated, reopened.State())

		require.NoError(t, s.Delete(ctx, gateway.SessionKey))
	})
}
