package ports

import (
	"context"

	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
)

// StatelessExecutor defines the transition core used by adapters that keep state externally.
// Implementations hold no per-entity state and must be safe for concurrent use.
type StatelessExecutor interface {
	// Execute computes one transition from snap for trigger.
	// Guard failures are reported in the result; contract bugs are returned as
	// *domain.ConfigurationError. snap is never modified.
	Execute(ctx context.Context, contract *domain.Contract, snap *domain.Snapshot, trigger string) (*domain.TransitionResult, *domain.Snapshot, error)
}
