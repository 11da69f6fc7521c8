package ports

import (
	"context"
	"testing"
	"time"

	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	entityID := "contract-test-entity-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := domain.NewSnapshot("pending")
		snap.Context["customer"] = domain.String("ada")
		snap.Context["amount"] = domain.Number(42)
		snap.Context["vip"] = domain.Bool(true)
		snap.Context["tags"] = domain.List{domain.String("a"), domain.Null{}}
		snap.Context["address"] = domain.Map{"city": domain.String("Lisbon")}

		err := store.Save(ctx, entityID, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, entityID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snap.CurrentState, loaded.CurrentState)
		assert.Equal(t, snap.Context, loaded.Context, "tagged context values must round-trip")
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, entityID, domain.NewSnapshot("processing")))

		loaded, err := store.Load(ctx, entityID)
		require.NoError(t, err)
		assert.Equal(t, "processing", loaded.CurrentState)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+entityID)
		assert.ErrorIs(t, err, domain.ErrEntityNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, entityID, domain.NewSnapshot("pending"))
		require.NoError(t, err)

		err = store.Delete(ctx, entityID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, entityID)
		assert.ErrorIs(t, err, domain.ErrEntityNotFound, "Load after Delete should return ErrEntityNotFound")

		assert.NoError(t, store.Delete(ctx, entityID), "deleting a missing entity is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := entityID + "-1"
		id2 := entityID + "-2"
		_ = store.Save(ctx, id1, domain.NewSnapshot("pending"))
		_ = store.Save(ctx, id2, domain.NewSnapshot("pending"))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
