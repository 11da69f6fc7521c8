package omnibase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/OmniNode-ai/omnibase-core-sub006/internal/compiler"
	"github.com/OmniNode-ai/omnibase-core-sub006/internal/logging"
	"github.com/OmniNode-ai/omnibase-core-sub006/internal/runtime"
	"github.com/OmniNode-ai/omnibase-core-sub006/internal/validator"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/registry"
	"github.com/google/uuid"
)

// Summary keys always present in Output.Metadata.
const (
	MetaNewState         = "fsm_new_state"
	MetaPreviousState    = "fsm_previous_state"
	MetaSuccess          = "fsm_success"
	MetaTransitionName   = "fsm_transition_name"
	MetaFailureReason    = "fsm_failure_reason"
	MetaFailedConditions = "fsm_failed_conditions"
	MetaErrorMessage     = "fsm_error_message"
)

// SummaryKeys lists the fixed output metadata keys.
var SummaryKeys = []string{
	MetaNewState,
	MetaPreviousState,
	MetaSuccess,
	MetaTransitionName,
	MetaFailureReason,
	MetaFailedConditions,
	MetaErrorMessage,
}

// Input is the envelope accepted by Node.Process.
type Input struct {
	// Data is the raw payload. It is exposed to guards as the "data" context key.
	Data domain.Value

	// Metadata is user metadata. A "trigger" key selects the trigger (default "process").
	Metadata domain.Map

	// OperationID identifies the call. A UUID is generated when empty.
	OperationID string
}

// Output is the envelope returned by Node.Process.
type Output struct {
	// Result is the new state name on success and Null otherwise.
	Result domain.Value

	// Metadata always carries exactly the keys in SummaryKeys.
	Metadata domain.Map

	// Intents is the ordered list of side effects for the effect executor.
	Intents []domain.Intent

	// Transition is the raw executor result.
	Transition *domain.TransitionResult
}

type settings struct {
	logger          *slog.Logger
	clock           runtime.Clock
	registry        *registry.Registry
	hooks           domain.LifecycleHooks
	divergenceCheck bool
	shallow         bool
	newID           func() string
}

// Option defines a functional option for configuring a Node or an Executor.
type Option func(*settings)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithClock sets the time source used for persistence timestamps.
// The default is time.Now, so persistence intents differ between otherwise
// identical calls unless a fixed clock is injected.
func WithClock(clock func() time.Time) Option {
	return func(s *settings) {
		s.clock = clock
	}
}

// WithRegistry sets custom intent builders keyed by action type.
func WithRegistry(r *registry.Registry) Option {
	return func(s *settings) {
		s.registry = r
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *settings) {
		s.hooks = hooks
	}
}

// WithDivergenceCheck toggles the pre-call state divergence check (default on).
func WithDivergenceCheck(enabled bool) Option {
	return func(s *settings) {
		s.divergenceCheck = enabled
	}
}

// WithShallowCopy copies metadata into the execution context without cloning nested values.
// Callers must not mutate nested metadata values while a call is running.
func WithShallowCopy() Option {
	return func(s *settings) {
		s.shallow = true
	}
}

// WithOperationIDs sets the generator for operation IDs of inputs that carry none.
func WithOperationIDs(fn func() string) Option {
	return func(s *settings) {
		s.newID = fn
	}
}

func newSettings(opts []Option) *settings {
	s := &settings{
		divergenceCheck: true,
		newID:           uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	return s
}

func (s *settings) executor(contractName string) *runtime.Executor {
	logger := s.logger
	if contractName != "" {
		logger = logger.With("fsm", contractName)
	}
	return runtime.NewExecutor(
		runtime.WithClock(s.clock),
		runtime.WithRegistry(s.registry),
		runtime.WithLogger(logger),
		runtime.WithLifecycleHooks(s.hooks),
	)
}

// Node is the stateful facade over the transition executor.
//
// A Node owns a single current-state cell for one logical entity. It has
// single-thread affinity: calls must not run concurrently without external
// synchronization. To manage many entities, keep state in a ports.StateStore
// and use the stateless Executor (see pkg/service).
type Node struct {
	contract *domain.Contract
	executor *runtime.Executor
	settings *settings

	// current is taken from the result and snapshot from the executor's
	// next snapshot; they must agree before every call.
	current  string
	snapshot *domain.Snapshot
}

// New validates the contract and creates a Node positioned at its initial state.
// An invalid contract is rejected and no Node is returned.
func New(contract *domain.Contract, opts ...Option) (*Node, error) {
	if err := ValidateContract(contract); err != nil {
		return nil, err
	}
	s := newSettings(opts)
	return &Node{
		contract: contract,
		executor: s.executor(contract.Name),
		settings: s,
		current:  contract.InitialState,
		snapshot: &domain.Snapshot{CurrentState: contract.InitialState, History: []string{contract.InitialState}},
	}, nil
}

// Load parses a YAML or JSON contract file and creates a Node for it.
func Load(path string, opts ...Option) (*Node, error) {
	contract, err := LoadContract(path)
	if err != nil {
		return nil, err
	}
	return New(contract, opts...)
}

// CurrentState returns the state the next call will transition from.
func (n *Node) CurrentState() string {
	return n.current
}

// Contract returns the contract the node executes.
func (n *Node) Contract() *domain.Contract {
	return n.contract
}

// Process applies one input.
//
// Guard failures are reported in the output with fsm_success=false and leave the
// current state untouched. Configuration errors are returned unmodified and also
// leave the current state untouched.
func (n *Node) Process(ctx context.Context, in Input) (*Output, error) {
	opID := in.OperationID
	if opID == "" {
		opID = n.settings.newID()
	}

	execCtx, collisions := runtime.BuildContext(in.Metadata, in.Data, opID, n.settings.shallow)
	trigger := runtime.TriggerFrom(in.Metadata)

	snap := &domain.Snapshot{
		CurrentState: n.snapshot.CurrentState,
		Context:      execCtx,
		History:      n.snapshot.History,
	}
	if n.settings.divergenceCheck && snap.CurrentState != n.current {
		return nil, domain.NewConfigurationError(domain.CodeStateDivergence, domain.ErrStateDivergence,
			"internal state %q diverged from snapshot state %q", n.current, snap.CurrentState)
	}

	result, next, err := n.executor.Execute(ctx, n.contract, snap, trigger, execCtx)
	if err != nil {
		return nil, err
	}

	intents := result.Intents
	if len(collisions) > 0 {
		n.settings.logger.Warn("metadata keys overridden by reserved context keys",
			"fsm", n.contract.Name, "keys", collisions, "operation_id", opID)
		intents = append([]domain.Intent{runtime.CollisionWarning(n.contract.Name, opID, collisions)}, intents...)
	}

	if result.Success {
		n.current = result.NewState
		n.snapshot = &domain.Snapshot{CurrentState: next.CurrentState, History: next.History}
	}

	return &Output{
		Result:     resultValue(result),
		Metadata:   Summarize(result),
		Intents:    intents,
		Transition: result,
	}, nil
}

// Summarize maps a transition result to the fixed seven-key summary.
// Absent values are Null so the key set never changes.
func Summarize(r *domain.TransitionResult) domain.Map {
	m := domain.Map{
		MetaNewState:         domain.String(r.NewState),
		MetaPreviousState:    domain.String(r.OldState),
		MetaSuccess:          domain.Bool(r.Success),
		MetaTransitionName:   optionalString(r.TransitionName),
		MetaFailureReason:    optionalString(r.FailureClass),
		MetaFailedConditions: domain.Null{},
		MetaErrorMessage:     optionalString(r.ErrorMessage),
	}
	if r.FailedConditions != nil {
		m[MetaFailedConditions] = domain.MustValue(r.FailedConditions)
	}
	return m
}

func resultValue(r *domain.TransitionResult) domain.Value {
	if r.Success {
		return domain.String(r.NewState)
	}
	return domain.Null{}
}

func optionalString(s string) domain.Value {
	if s == "" {
		return domain.Null{}
	}
	return domain.String(s)
}

// ValidateContract checks a contract and returns an error wrapping
// domain.ErrInvalidContract when it must be rejected.
func ValidateContract(contract *domain.Contract) error {
	return validator.Validate(contract).Err()
}

// LoadContract parses and validates a YAML or JSON contract file.
func LoadContract(path string) (*domain.Contract, error) {
	contract, err := compiler.NewParser().ParseFile(path)
	if err != nil {
		return nil, err
	}
	if err := ValidateContract(contract); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return contract, nil
}
