package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/OmniNode-ai/omnibase-core-sub006/internal/logging"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/registry"
)

// Clock returns the current time. It is injected so that persistence intents
// carry reproducible timestamps.
type Clock func() time.Time

// Executor is the pure transition core.
// It holds no mutable state and is safe for concurrent use.
type Executor struct {
	clock    Clock
	registry *registry.Registry
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithClock sets the time source for persistence timestamps.
func WithClock(c Clock) ExecutorOption {
	return func(x *Executor) {
		if c != nil {
			x.clock = c
		}
	}
}

// WithRegistry sets the action intent builders.
func WithRegistry(r *registry.Registry) ExecutorOption {
	return func(x *Executor) {
		x.registry = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(x *Executor) {
		if logger != nil {
			x.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) ExecutorOption {
	return func(x *Executor) {
		x.hooks = hooks
	}
}

// NewExecutor creates an executor. The clock defaults to time.Now; replays are
// byte-identical only when WithClock injects a fixed clock.
func NewExecutor(opts ...ExecutorOption) *Executor {
	x := &Executor{
		clock:  time.Now,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Execute computes one transition of contract from snap for trigger.
//
// Guards are evaluated against execCtx (snap.Context when execCtx is nil).
// Business-constraint failures are returned in the result with Success=false.
// The returned error is always a *domain.ConfigurationError and is returned unwrapped:
// undeclared or terminal current state, no matching transition, unknown guard operator,
// or a critical action whose intent could not be built.
//
// The input snapshot is never modified; a new snapshot is returned.
func (x *Executor) Execute(
	ctx context.Context,
	contract *domain.Contract,
	snap *domain.Snapshot,
	trigger string,
	execCtx domain.Map,
) (*domain.TransitionResult, *domain.Snapshot, error) {
	started := time.Now()

	if contract == nil || snap == nil {
		return nil, nil, x.raise(ctx, contract, snap, trigger,
			domain.NewConfigurationError(domain.CodeValidation, domain.ErrInvalidContract, "contract and snapshot are required"))
	}
	if execCtx == nil {
		execCtx = snap.Context
	}

	current := snap.CurrentState
	if !contract.HasState(current) {
		return nil, nil, x.raise(ctx, contract, snap, trigger,
			domain.NewConfigurationError(domain.CodeValidation, domain.ErrStateNotDeclared,
				"current state %q is not declared by %q", current, contract.Name))
	}
	if contract.IsTerminal(current) {
		return nil, nil, x.raise(ctx, contract, snap, trigger,
			domain.NewConfigurationError(domain.CodeTerminalState, domain.ErrTerminalState,
				"current state %q is terminal", current))
	}

	selected, outcome := Select(contract.Transitions, current, trigger)
	if outcome == NoMatch {
		return nil, nil, x.raise(ctx, contract, snap, trigger,
			domain.NewConfigurationError(domain.CodeNoMatchingTransition, domain.ErrNoMatchingTransition,
				"no transition from %q on trigger %q", current, trigger))
	}

	failure, err := evaluateGuards(selected, execCtx)
	if err != nil {
		return nil, nil, x.raise(ctx, contract, snap, trigger, err)
	}

	opID := operationID(execCtx, contract)

	if failure != nil {
		result := &domain.TransitionResult{
			Success:          false,
			NewState:         current,
			OldState:         current,
			TransitionName:   selected.Name,
			Intents:          []domain.Intent{},
			FailureClass:     failure.class,
			FailedConditions: failure.failed,
			ErrorMessage:     failure.message,
		}
		x.logger.Debug("transition blocked",
			"fsm", contract.Name, "transition", selected.Name, "from", current, "to", selected.ToState, "success", false)
		x.emit(ctx, x.hooks.OnGuardFailure, contract, trigger, result, started)
		return result, nextSnapshot(snap, current), nil
	}

	intents, err := x.buildIntents(contract, selected, current, opID, snap, execCtx)
	if err != nil {
		return nil, nil, x.raise(ctx, contract, snap, trigger, err)
	}

	result := &domain.TransitionResult{
		Success:        true,
		NewState:       selected.ToState,
		OldState:       current,
		TransitionName: selected.Name,
		Intents:        intents,
	}

	x.logger.Debug("transition applied",
		"fsm", contract.Name, "transition", selected.Name, "from", current, "to", selected.ToState, "success", true)
	x.emit(ctx, x.hooks.OnTransition, contract, trigger, result, started)

	return result, nextSnapshot(snap, selected.ToState), nil
}

type guardFailure struct {
	class   string
	failed  []string
	message string
}

// evaluateGuards runs every guard in declaration order.
// Optional guards are advisory. An unknown operator is raised for any guard.
func evaluateGuards(t *domain.TransitionDefinition, execCtx domain.Map) (*guardFailure, error) {
	var (
		failed    []string
		messages  []string
		evalError []string
	)

	for _, cond := range t.Conditions {
		ok, err := Evaluate(cond.Expression, execCtx)
		if err != nil {
			var ce *domain.ConfigurationError
			if errors.As(err, &ce) {
				return nil, ce
			}
		}
		if !cond.IsRequired() {
			continue
		}
		if err != nil {
			evalError = append(evalError, fmt.Sprintf("condition %q: %v", cond.Name, err))
			continue
		}
		if !ok {
			failed = append(failed, cond.Name)
			msg := cond.ErrorMessage
			if msg == "" {
				msg = fmt.Sprintf("condition %q not met", cond.Name)
			}
			messages = append(messages, msg)
		}
	}

	if len(evalError) > 0 {
		return &guardFailure{
			class:   domain.FailureConditionEvaluationError,
			failed:  nil,
			message: strings.Join(evalError, "; "),
		}, nil
	}
	if len(failed) > 0 {
		return &guardFailure{
			class:   domain.FailureConditionsNotMet,
			failed:  failed,
			message: strings.Join(messages, "; "),
		}, nil
	}
	return nil, nil
}

// buildIntents emits exit, transition and entry action intents followed by the persistence intent.
// This order is part of the result contract.
func (x *Executor) buildIntents(
	contract *domain.Contract,
	t *domain.TransitionDefinition,
	current, opID string,
	snap *domain.Snapshot,
	execCtx domain.Map,
) ([]domain.Intent, error) {
	from := contract.State(current)
	to := contract.State(t.ToState)

	intents := make([]domain.Intent, 0)

	phases := []struct {
		phase   registry.Phase
		owner   string
		actions []domain.Action
	}{
		{registry.PhaseExit, from.Name, from.ResolveActions(from.ExitActions)},
		{registry.PhaseTransition, t.Name, t.Actions},
		{registry.PhaseEntry, to.Name, to.ResolveActions(to.EntryActions)},
	}

	for _, p := range phases {
		ac := registry.ActionContext{
			FSMName:     contract.Name,
			Phase:       p.phase,
			Owner:       p.owner,
			FromState:   current,
			ToState:     t.ToState,
			OperationID: opID,
		}
		for _, action := range sortActions(p.actions) {
			intent, err := x.registry.Build(action, ac)
			if err != nil {
				if action.Critical {
					return nil, domain.NewConfigurationError(domain.CodeCriticalAction, domain.ErrCriticalAction,
						"critical action %q in %s phase of %q: %v", action.Name, p.phase, p.owner, err)
				}
				x.logger.Warn("action intent degraded to failure intent",
					"fsm", contract.Name, "action", action.Name, "phase", string(p.phase), "error", err)
				intent = failureIntent(action, ac, err)
			}
			intents = append(intents, intent)
		}
	}

	if contract.Flags.PersistenceEnabled {
		intents = append(intents, x.persistIntent(contract, current, t.ToState, opID, snap, execCtx))
	}

	for i := range intents {
		if intents[i].ID == "" {
			intents[i].ID = fmt.Sprintf("%s:%d", opID, i)
		}
	}
	return intents, nil
}

// sortActions orders actions by their Order hint, keeping declaration order for ties.
func sortActions(actions []domain.Action) []domain.Action {
	out := append([]domain.Action(nil), actions...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func failureIntent(action domain.Action, ac registry.ActionContext, cause error) domain.Intent {
	return domain.Intent{
		Type:   domain.IntentActionFailure,
		Target: action.Name,
		Payload: domain.Map{
			domain.PayloadFSMName:           domain.String(ac.FSMName),
			domain.PayloadStateOrTransition: domain.String(ac.Owner),
			domain.PayloadActionName:        domain.String(action.Name),
			domain.PayloadOperationID:       domain.String(ac.OperationID),
			domain.PayloadFailedIntentType:  domain.String(ac.Phase.IntentType()),
			domain.PayloadError:             domain.String(cause.Error()),
		},
	}
}

func (x *Executor) persistIntent(contract *domain.Contract, previous, next, opID string, snap *domain.Snapshot, execCtx domain.Map) domain.Intent {
	payload := domain.Map{
		domain.PayloadFSMName:       domain.String(contract.Name),
		domain.PayloadPreviousState: domain.String(previous),
		domain.PayloadState:         domain.String(next),
		domain.PayloadOperationID:   domain.String(opID),
		domain.PayloadTimestamp:     domain.String(x.clock().UTC().Format(time.RFC3339Nano)),
	}
	if len(snap.Context) > 0 {
		payload[domain.PayloadContext] = snap.Context.Clone()
	}
	for _, key := range []string{domain.PayloadCorrelationID, domain.PayloadEntityID} {
		if v, ok := execCtx[key].(domain.String); ok {
			payload[key] = v
		}
	}
	return domain.Intent{
		Type:    domain.IntentPersistState,
		Target:  contract.Name,
		Payload: payload,
	}
}

func operationID(execCtx domain.Map, contract *domain.Contract) string {
	if v, ok := execCtx[domain.KeyOperationID]; ok && v != nil {
		if _, isNull := v.(domain.Null); isNull {
			return contract.Name
		}
		if s := v.String(); s != "" {
			return s
		}
	}
	return contract.Name
}

func nextSnapshot(snap *domain.Snapshot, state string) *domain.Snapshot {
	history := make([]string, 0, len(snap.History)+1)
	history = append(history, snap.History...)
	history = append(history, state)
	return &domain.Snapshot{
		CurrentState: state,
		Context:      snap.Context,
		History:      history,
	}
}

func (x *Executor) raise(ctx context.Context, contract *domain.Contract, snap *domain.Snapshot, trigger string, err error) error {
	var ce *domain.ConfigurationError
	if !errors.As(err, &ce) {
		return err
	}
	ev := &domain.ErrorEvent{
		EventBase: domain.EventBase{Timestamp: x.clock(), Type: domain.EventConfigurationError},
		Trigger:   trigger,
		Code:      ce.Code,
		Err:       ce,
	}
	if contract != nil {
		ev.FSMName = contract.Name
	}
	if snap != nil {
		ev.FromState = snap.CurrentState
	}
	x.logger.Debug("transition raised configuration error", "fsm", ev.FSMName, "from", ev.FromState, "code", string(ce.Code))
	if x.hooks.OnConfigurationError != nil {
		x.hooks.OnConfigurationError(ctx, ev)
	}
	return err
}

func (x *Executor) emit(ctx context.Context, hook func(context.Context, *domain.TransitionEvent), contract *domain.Contract, trigger string, result *domain.TransitionResult, started time.Time) {
	if hook == nil {
		return
	}
	eventType := domain.EventTransition
	if !result.Success {
		eventType = domain.EventGuardFailure
	}
	hook(ctx, &domain.TransitionEvent{
		EventBase:      domain.EventBase{Timestamp: x.clock(), Type: eventType, FSMName: contract.Name},
		Trigger:        trigger,
		FromState:      result.OldState,
		ToState:        result.NewState,
		TransitionName: result.TransitionName,
		Success:        result.Success,
		FailureClass:   result.FailureClass,
		IntentCount:    len(result.Intents),
		Duration:       time.Since(started),
	})
}
