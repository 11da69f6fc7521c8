package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/OmniNode-ai/omnibase-core-sub006/internal/logging"
	"github.com/OmniNode-ai/omnibase-core-sub006/internal/runtime"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/ports"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/session"
	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/OmniNode-ai/omnibase-core-sub006/pkg/service"

// ErrDispatch marks a dispatch failure after the snapshot was saved.
// Transition returns the committed Response alongside it.
var ErrDispatch = errors.New("dispatch intents")

// Request asks for one transition of one entity.
type Request struct {
	// Contract names the contract to resolve through the loader.
	Contract string `json:"contract"`

	// EntityID identifies the snapshot in the state store.
	EntityID string `json:"entity_id"`

	// Trigger selects the transition. Empty means domain.DefaultTrigger.
	Trigger string `json:"trigger,omitempty"`

	// Data is exposed to guards as the "data" context key.
	Data domain.Value `json:"-"`

	// Context is merged into the stored entity context. The merge is persisted
	// only when the transition succeeds.
	Context domain.Map `json:"context,omitempty"`

	// Metadata is visible to guards for this call only.
	Metadata domain.Map `json:"metadata,omitempty"`

	// OperationID identifies the call. A UUID is generated when empty.
	OperationID string `json:"operation_id,omitempty"`

	// CorrelationID is copied into persistence intents when set.
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Response is the outcome of one transition request.
type Response struct {
	EntityID    string                   `json:"entity_id"`
	OperationID string                   `json:"operation_id"`
	Result      *domain.TransitionResult `json:"result"`
	Snapshot    *domain.Snapshot         `json:"snapshot"`
	Diff        *domain.SnapshotDiff     `json:"diff,omitempty"`
	Fingerprint string                   `json:"fingerprint"`

	// DispatchError is set when intents could not be dispatched after the
	// transition was committed.
	DispatchError string `json:"dispatch_error,omitempty"`
}

// Service runs transitions for many entities over a shared stateless executor.
//
// Each Transition call loads the entity snapshot, executes, saves on success and
// dispatches intents, all while holding that entity's session lock.
type Service struct {
	loader     ports.ContractLoader
	sessions   *session.Manager
	executor   ports.StatelessExecutor
	dispatcher ports.IntentDispatcher
	logger     *slog.Logger
	tracer     trace.Tracer
	newID      func() string
	workers    int
}

// Option configures a Service.
type Option func(*Service)

// WithDispatcher sets the intent dispatcher. The default only logs intents.
func WithDispatcher(d ports.IntentDispatcher) Option {
	return func(s *Service) {
		if d != nil {
			s.dispatcher = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTracer sets the tracer. The default is the global otel tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithOperationIDs sets the generator for requests that carry no operation ID.
func WithOperationIDs(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithWorkers bounds the concurrency of ExecuteBatch.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// New creates a Service.
func New(loader ports.ContractLoader, sessions *session.Manager, executor ports.StatelessExecutor, opts ...Option) *Service {
	s := &Service{
		loader:   loader,
		sessions: sessions,
		executor: executor,
		logger:   logging.NewNop(),
		newID:    uuid.NewString,
		workers:  DefaultWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	if s.dispatcher == nil {
		s.dispatcher = LogDispatcher(s.logger)
	}
	return s
}

// Transition executes one request.
//
// Guard failures are returned in Response.Result with the snapshot unchanged.
// Configuration errors from the executor are returned unmodified.
func (s *Service) Transition(ctx context.Context, req Request) (*Response, error) {
	if req.EntityID == "" {
		return nil, fmt.Errorf("entity id is required")
	}
	opID := req.OperationID
	if opID == "" {
		opID = s.newID()
	}
	trigger := req.Trigger
	if trigger == "" {
		trigger = domain.DefaultTrigger
	}

	ctx, span := s.tracer.Start(ctx, "service.transition", trace.WithAttributes(
		attribute.String("fsm.contract", req.Contract),
		attribute.String("fsm.entity_id", req.EntityID),
		attribute.String("fsm.trigger", trigger),
		attribute.String("fsm.operation_id", opID),
	))
	defer span.End()

	contract, err := s.loader.Load(ctx, req.Contract)
	if err != nil {
		return nil, s.fail(span, err)
	}

	resp := &Response{EntityID: req.EntityID, OperationID: opID}
	err = s.sessions.Update(ctx, req.EntityID, contract.InitialState, func(stored *domain.Snapshot) (*domain.Snapshot, error) {
		entityCtx := merge(stored.Context, req.Context)

		execCtx, collisions := runtime.BuildContext(merge(entityCtx, req.Metadata), req.Data, opID, false)
		execCtx[domain.PayloadEntityID] = domain.String(req.EntityID)
		if req.CorrelationID != "" {
			execCtx[domain.PayloadCorrelationID] = domain.String(req.CorrelationID)
		}
		if len(collisions) > 0 {
			s.logger.Warn("request keys overridden by reserved context keys",
				"entity_id", req.EntityID, "keys", collisions, "operation_id", opID)
		}

		working := &domain.Snapshot{CurrentState: stored.CurrentState, Context: execCtx, History: stored.History}
		result, next, err := s.executor.Execute(ctx, contract, working, trigger)
		if err != nil {
			return nil, err
		}
		if len(collisions) > 0 {
			result.Intents = append([]domain.Intent{runtime.CollisionWarning(contract.Name, opID, collisions)}, result.Intents...)
		}
		resp.Result = result

		if !result.Success {
			resp.Snapshot = stored
			return nil, nil
		}

		saved := &domain.Snapshot{CurrentState: next.CurrentState, Context: entityCtx, History: next.History}
		resp.Snapshot = saved
		resp.Diff = domain.Diff(req.EntityID, stored, saved)
		return saved, nil
	})
	if err != nil {
		return nil, s.fail(span, err)
	}

	resp.Fingerprint = Fingerprint(resp.Snapshot.CurrentState, resp.Result)
	span.SetAttributes(
		attribute.Bool("fsm.success", resp.Result.Success),
		attribute.String("fsm.new_state", resp.Result.NewState),
		attribute.Int("fsm.intents", len(resp.Result.Intents)),
	)

	if len(resp.Result.Intents) > 0 {
		if err := s.dispatcher.Dispatch(ctx, req.EntityID, resp.Result.Intents); err != nil {
			resp.DispatchError = err.Error()
			return resp, s.fail(span, fmt.Errorf("%w: %w", ErrDispatch, err))
		}
	}
	return resp, nil
}

// Get returns the stored snapshot of an entity.
func (s *Service) Get(ctx context.Context, entityID string) (*domain.Snapshot, error) {
	return s.sessions.Load(ctx, entityID)
}

// Delete removes an entity snapshot.
func (s *Service) Delete(ctx context.Context, entityID string) error {
	return s.sessions.Delete(ctx, entityID)
}

// Entities lists stored entity IDs.
func (s *Service) Entities(ctx context.Context) ([]string, error) {
	return s.sessions.List(ctx)
}

// Contracts exposes the contract loader.
func (s *Service) Contracts() ports.ContractLoader {
	return s.loader
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	var ce *domain.ConfigurationError
	if errors.As(err, &ce) {
		span.SetAttributes(attribute.String("fsm.error_code", string(ce.Code)))
	}
	return err
}

// merge overlays b on a copy of a.
func merge(a, b domain.Map) domain.Map {
	out := a.Clone()
	if out == nil {
		out = domain.Map{}
	}
	for k, v := range b {
		out[k] = domain.CloneValue(v)
	}
	return out
}

type fingerprintInput struct {
	State   string          `json:"state"`
	Success bool            `json:"success"`
	Name    string          `json:"transition"`
	Intents []domain.Intent `json:"intents"`
}

// Fingerprint hashes the observable outcome of a transition with xxh3.
// History is not part of the input, so replays with diverging debug history
// produce the same fingerprint.
func Fingerprint(state string, result *domain.TransitionResult) string {
	in := fingerprintInput{State: state}
	if result != nil {
		in.Success = result.Success
		in.Name = result.TransitionName
		in.Intents = result.Intents
	}
	// encoding/json sorts map keys, which makes the encoding canonical.
	data, err := json.Marshal(in)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%016x", xxh3.Hash(data))
}
