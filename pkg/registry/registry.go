package registry

import (
	"fmt"
	"sync"

	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
)

// Phase is the action phase an intent is built for.
type Phase string

const (
	PhaseExit       Phase = "exit"
	PhaseTransition Phase = "transition"
	PhaseEntry      Phase = "entry"
)

// IntentType returns the intent type emitted for actions in this phase.
func (p Phase) IntentType() domain.IntentType {
	switch p {
	case PhaseExit:
		return domain.IntentExitAction
	case PhaseEntry:
		return domain.IntentEntryAction
	default:
		return domain.IntentTransitionAction
	}
}

// ActionContext describes where an action runs.
type ActionContext struct {
	FSMName     string
	Phase       Phase
	Owner       string // state name for exit/entry, transition name for transition actions
	FromState   string
	ToState     string
	OperationID string
}

// IntentBuilder turns one action into one intent.
// Builders must be pure: the same input yields the same intent.
type IntentBuilder func(action domain.Action, ac ActionContext) (domain.Intent, error)

// Registry maps action types to intent builders.
// Actions whose type has no builder use DefaultBuilder.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]IntentBuilder
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]IntentBuilder),
	}
}

// Register adds a builder for an action type.
// If a builder for the same type exists, it is overwritten.
func (r *Registry) Register(actionType string, fn IntentBuilder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[actionType] = fn
}

// Types returns the registered action types.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.builders))
	for t := range r.builders {
		out = append(out, t)
	}
	return out
}

// Build looks up the builder for action.Type and runs it.
// A panicking builder is reported as an error.
func (r *Registry) Build(action domain.Action, ac ActionContext) (intent domain.Intent, err error) {
	fn := DefaultBuilder
	if r != nil {
		r.mu.RLock()
		if b, ok := r.builders[action.Type]; ok {
			fn = b
		}
		r.mu.RUnlock()
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("intent builder for action %q panicked: %v", action.Name, rec)
		}
	}()

	return fn(action, ac)
}

// DefaultBuilder emits a <phase>_action intent with the canonical payload.
func DefaultBuilder(action domain.Action, ac ActionContext) (domain.Intent, error) {
	if action.Name == "" {
		return domain.Intent{}, fmt.Errorf("action in %s phase of %q has no name", ac.Phase, ac.Owner)
	}

	payload := domain.Map{
		domain.PayloadFSMName:           domain.String(ac.FSMName),
		domain.PayloadStateOrTransition: domain.String(ac.Owner),
		domain.PayloadActionName:        domain.String(action.Name),
		domain.PayloadOperationID:       domain.String(ac.OperationID),
		domain.PayloadActionType:        domain.String(action.Type),
		domain.PayloadActionOrder:       domain.Number(action.Order),
	}
	switch ac.Phase {
	case PhaseTransition:
		payload[domain.PayloadFromState] = domain.String(ac.FromState)
		payload[domain.PayloadToState] = domain.String(ac.ToState)
	case PhaseExit:
		payload[domain.PayloadToState] = domain.String(ac.ToState)
	case PhaseEntry:
		payload[domain.PayloadFromState] = domain.String(ac.FromState)
	}
	if len(action.Params) > 0 {
		payload[domain.PayloadActionParams] = action.Params.Clone()
	}

	return domain.Intent{
		Type:    ac.Phase.IntentType(),
		Target:  action.Name,
		Payload: payload,
	}, nil
}
