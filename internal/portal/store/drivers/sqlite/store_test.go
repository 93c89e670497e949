package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/carematch360/portal/internal/portal/store/drivers/sqlite"
	"github.com/carematch360/portal/internal/portal/store/storetest"
)

func openStore(t *testing.T, dsn string) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_InMemory(t *testing.T) {
	t.Parallel()
	storetest.Run(t, openStore(t, ":memory:"))
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "portal.db")

	first, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	require.NoError(t, first.ApplyMigrations())
	require.NoError(t, first.Set(ctx, "cm360_session", []byte(`{"accessToken":"a"}`)))
	require.NoError(t, first.Close())

	second := openStore(t, dsn)
	got, err := second.Get(ctx, "cm360_session")
	require.NoError(t, err)
	require.JSONEq(t, `{"accessToken":"a"}`, string(got))
}

func TestStore_MigrationsAreIdempotent(t *testing.T) {
	t.Parallel()
	s := openStore(t, filepath.Join(t.TempDir(), "portal.db"))
	require.NoError(t, s.ApplyMigrations())
}
