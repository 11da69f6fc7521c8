package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/adapters/sqlite"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.StateStore = (*sqlite.Store)(nil)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "omnibase.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, openStore(t))
}

func TestSQLiteStore_History(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	snap := &domain.Snapshot{
		CurrentState: "processing",
		Context:      domain.Map{},
		History:      []string{"pending", "processing"},
	}
	require.NoError(t, store.Save(ctx, "e-1", snap))

	loaded, err := store.Load(ctx, "e-1")
	require.NoError(t, err)
	assert.Equal(t, snap.History, loaded.History)
}

func TestSQLiteStore_CountByState(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a", domain.NewSnapshot("pending")))
	require.NoError(t, store.Save(ctx, "b", domain.NewSnapshot("pending")))
	require.NoError(t, store.Save(ctx, "c", domain.NewSnapshot("done")))

	counts, err := store.CountByState(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"pending": 2, "done": 1}, counts)
}

func TestSQLiteStore_ReopenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "omnibase.db")
	ctx := context.Background()

	first, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, "e-1", domain.NewSnapshot("pending")))
	require.NoError(t, first.Close())

	second, err := sqlite.Open(path)
	require.NoError(t, err)
	defer second.Close()

	loaded, err := second.Load(ctx, "e-1")
	require.NoError(t, err)
	assert.Equal(t, "pending", loaded.CurrentState)
}
