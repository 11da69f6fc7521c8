package ports

import (
	"context"

	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
)

// StateStore defines the interface for persisting entity snapshots.
// The executor is stateless; a StateStore is what lets many entities share one executor.
type StateStore interface {
	// Save persists the snapshot for a given entity ID.
	Save(ctx context.Context, entityID string, snap *domain.Snapshot) error

	// Load retrieves the snapshot for a given entity ID.
	// Returns domain.ErrEntityNotFound if the entity does not exist.
	Load(ctx context.Context, entityID string) (*domain.Snapshot, error)

	// Delete removes the snapshot for a given entity ID.
	// Deleting a missing entity is not an error.
	Delete(ctx context.Context, entityID string) error

	// List returns the IDs of all stored entities.
	List(ctx context.Context) ([]string, error)
}
