package ports

import (
	"context"

	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
)

// IntentDispatcher hands intents to the external effect executor.
// The engine emits intents, and the host implements this interface to deliver them.
// Implementations must preserve the order of intents within one call.
type IntentDispatcher interface {
	Dispatch(ctx context.Context, entityID string, intents []domain.Intent) error
}

// DispatcherFunc adapts a function to IntentDispatcher.
type DispatcherFunc func(ctx context.Context, entityID string, intents []domain.Intent) error

// Dispatch calls f.
func (f DispatcherFunc) Dispatch(ctx context.Context, entityID string, intents []domain.Intent) error {
	return f(ctx, entityID, intents)
}
