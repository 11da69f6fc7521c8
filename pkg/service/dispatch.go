package service

import (
	"context"
	"log/slog"

	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/ports"
)

// LogDispatcher returns a dispatcher that only logs intents at Info.
// It is the default when no transport is configured.
func LogDispatcher(logger *slog.Logger) ports.IntentDispatcher {
	return ports.DispatcherFunc(func(ctx context.Context, entityID string, intents []domain.Intent) error {
		for _, intent := range intents {
			logger.InfoContext(ctx, "intent",
				"entity_id", entityID,
				"id", intent.ID,
				"type", string(intent.Type),
				"target", intent.Target,
			)
		}
		return nil
	})
}

// MultiDispatcher dispatches to each dispatcher in turn and stops at the first error.
func MultiDispatcher(dispatchers ...ports.IntentDispatcher) ports.IntentDispatcher {
	return ports.DispatcherFunc(func(ctx context.Context, entityID string, intents []domain.Intent) error {
		for _, d := range dispatchers {
			if err := d.Dispatch(ctx, entityID, intents); err != nil {
				return err
			}
		}
		return nil
	})
}
