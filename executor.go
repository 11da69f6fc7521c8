package omnibase

import (
	"context"

	"github.com/OmniNode-ai/omnibase-core-sub006/internal/runtime"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
)

// Executor is the stateless transition function.
// It holds no per-entity state and is safe for concurrent use, so one Executor
// can serve any number of entities whose snapshots live in a ports.StateStore.
type Executor struct {
	core *runtime.Executor
}

// NewExecutor creates a stateless executor.
// WithDivergenceCheck, WithShallowCopy and WithOperationIDs only affect Node and are ignored here.
//
// Identical inputs yield byte-identical results only with WithClock: the
// persist_state timestamp is read from the clock, which defaults to time.Now.
func NewExecutor(opts ...Option) *Executor {
	s := newSettings(opts)
	return &Executor{core: s.executor("")}
}

// Execute computes one transition from snap using snap.Context for guards.
// It returns the result and the next snapshot; snap itself is never modified.
// Configuration errors are returned as *domain.ConfigurationError.
func (e *Executor) Execute(ctx context.Context, contract *domain.Contract, snap *domain.Snapshot, trigger string) (*domain.TransitionResult, *domain.Snapshot, error) {
	return e.core.Execute(ctx, contract, snap, trigger, nil)
}

// ExecuteWith is like Execute but evaluates guards against execCtx instead of snap.Context.
func (e *Executor) ExecuteWith(ctx context.Context, contract *domain.Contract, snap *domain.Snapshot, trigger string, execCtx domain.Map) (*domain.TransitionResult, *domain.Snapshot, error) {
	return e.core.Execute(ctx, contract, snap, trigger, execCtx)
}
