package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTransition         EventType = "transition"
	EventGuardFailure       EventType = "guard_failure"
	EventConfigurationError EventType = "configuration_error"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	FSMName   string    `json:"fsm_name"`
}

// TransitionEvent describes a completed executor call (successful or not).
type TransitionEvent struct {
	EventBase
	Trigger        string        `json:"trigger"`
	FromState      string        `json:"from_state"`
	ToState        string        `json:"to_state"`
	TransitionName string        `json:"transition_name,omitempty"`
	Success        bool          `json:"success"`
	FailureClass   string        `json:"failure_class,omitempty"`
	IntentCount    int           `json:"intent_count"`
	Duration       time.Duration `json:"duration"`
}

// ErrorEvent describes a raised configuration error.
type ErrorEvent struct {
	EventBase
	Trigger   string    `json:"trigger"`
	FromState string    `json:"from_state"`
	Code      ErrorCode `json:"code"`
	Err       error     `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
// Nil callbacks are skipped.
type LifecycleHooks struct {
	OnTransition         func(context.Context, *TransitionEvent)
	OnGuardFailure       func(context.Context, *TransitionEvent)
	OnConfigurationError func(context.Context, *ErrorEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTransition:         chainTransition(h.OnTransition, other.OnTransition),
		OnGuardFailure:       chainTransition(h.OnGuardFailure, other.OnGuardFailure),
		OnConfigurationError: chainError(h.OnConfigurationError, other.OnConfigurationError),
	}
}

func chainTransition(a, b func(context.Context, *TransitionEvent)) func(context.Context, *TransitionEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, ev *TransitionEvent) {
		a(ctx, ev)
		b(ctx, ev)
	}
}

func chainError(a, b func(context.Context, *ErrorEvent)) func(context.Context, *ErrorEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, ev *ErrorEvent) {
		a(ctx, ev)
		b(ctx, ev)
	}
}
