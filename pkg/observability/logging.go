package observability

import (
	"context"
	"log/slog"

	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that write an audit line per call.
// Transitions log at info, guard failures at warn and configuration errors at error.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.InfoContext(ctx, "transition",
				"fsm", e.FSMName,
				"trigger", e.Trigger,
				"transition", e.TransitionName,
				"from", e.FromState,
				"to", e.ToState,
				"intents", e.IntentCount,
				"duration", e.Duration,
			)
		},
		OnGuardFailure: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.WarnContext(ctx, "transition blocked",
				"fsm", e.FSMName,
				"trigger", e.Trigger,
				"transition", e.TransitionName,
				"state", e.FromState,
				"failure_class", e.FailureClass,
			)
		},
		OnConfigurationError: func(ctx context.Context, e *domain.ErrorEvent) {
			logger.ErrorContext(ctx, "configuration error",
				"fsm", e.FSMName,
				"trigger", e.Trigger,
				"state", e.FromState,
				"code", string(e.Code),
				"err", e.Err,
			)
		},
	}
}
