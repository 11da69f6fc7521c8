package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	omnibase "github.com/OmniNode-ai/omnibase-core-sub006"
	"github.com/OmniNode-ai/omnibase-core-sub006/internal/compiler"
	"github.com/OmniNode-ai/omnibase-core-sub006/internal/logging"
	"github.com/OmniNode-ai/omnibase-core-sub006/internal/presentation/graph"
	"github.com/OmniNode-ai/omnibase-core-sub006/internal/validator"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/ports"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodyBytes bounds request bodies (contract documents included).
const maxBodyBytes = 1 << 20

// Engine is the entity service surface the handlers need.
type Engine interface {
	Transition(ctx context.Context, req service.Request) (*service.Response, error)
	Get(ctx context.Context, entityID string) (*domain.Snapshot, error)
	Delete(ctx context.Context, entityID string) error
	Entities(ctx context.Context) ([]string, error)
	Contracts() ports.ContractLoader
}

// Server holds the handler dependencies.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics exposes the gatherer on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	server := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}
	server.Streams.logger = server.logger

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	if server.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(server.gatherer, promhttp.HandlerOpts{}))
	}

	r.Post("/validate", server.Validate)

	r.Route("/contracts", func(r chi.Router) {
		r.Get("/", server.ListContracts)
		r.Get("/{name}", server.GetContract)
		r.Get("/{name}/graph", server.GetGraph)
	})

	r.Route("/entities", func(r chi.Router) {
		r.Get("/", server.ListEntities)
		r.Get("/{id}", server.GetEntity)
		r.Delete("/{id}", server.DeleteEntity)
		r.Post("/{id}/transitions", server.Transition)
		r.Get("/{id}/events", server.SubscribeEvents)
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// transitionBody is the wire form of a transition request.
type transitionBody struct {
	Contract      string          `json:"contract"`
	Trigger       string          `json:"trigger"`
	Data          json.RawMessage `json:"data"`
	Context       domain.Map      `json:"context"`
	Metadata      domain.Map      `json:"metadata"`
	OperationID   string          `json:"operation_id"`
	CorrelationID string          `json:"correlation_id"`
}

// ErrorResponse is the body of non-2xx JSON responses, except the 502 of a
// committed transition whose intents could not be dispatched.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Transition handles POST /entities/{id}/transitions.
// Guard failures are answered with 200 and success=false in the result;
// configuration errors with 422 and their code. A transition that was saved
// but whose intents failed to dispatch is answered with 502 and the full
// response, dispatch_error included, so clients do not retry it.
func (s *Server) Transition(w http.ResponseWriter, r *http.Request) {
	var body transitionBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "", "invalid request body")
		s.logger.Warn("Transition: invalid request body", "err", err)
		return
	}

	req := service.Request{
		Contract:      body.Contract,
		EntityID:      chi.URLParam(r, "id"),
		Trigger:       body.Trigger,
		Context:       body.Context,
		Metadata:      body.Metadata,
		OperationID:   body.OperationID,
		CorrelationID: body.CorrelationID,
	}
	if len(body.Data) > 0 {
		data, err := domain.UnmarshalValue(body.Data)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "", fmt.Sprintf("invalid data: %v", err))
			return
		}
		req.Data = data
	}

	status := http.StatusOK
	resp, err := s.Engine.Transition(r.Context(), req)
	switch {
	case err != nil && resp != nil && errors.Is(err, service.ErrDispatch):
		s.logger.Error("Transition: committed but dispatch failed", "entity_id", req.EntityID, "err", err)
		status = http.StatusBadGateway
	case err != nil:
		s.writeEngineError(w, err)
		return
	}

	if resp.Diff != nil {
		s.logger.Debug("Transition: diff calculated", "entity_id", req.EntityID)
		if bytes, err := json.Marshal(resp.Diff); err == nil {
			s.Streams.Broadcast(req.EntityID, string(bytes))
		}
	}

	s.writeJSON(w, status, resp)
}

// GetEntity handles GET /entities/{id}.
func (s *Server) GetEntity(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Engine.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// DeleteEntity handles DELETE /entities/{id}.
func (s *Server) DeleteEntity(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListEntities handles GET /entities.
func (s *Server) ListEntities(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Entities(r.Context())
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// ListContracts handles GET /contracts.
func (s *Server) ListContracts(w http.ResponseWriter, r *http.Request) {
	names, err := s.Engine.Contracts().List(r.Context())
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	s.writeJSON(w, http.StatusOK, names)
}

// GetContract handles GET /contracts/{name}.
func (s *Server) GetContract(w http.ResponseWriter, r *http.Request) {
	c, err := s.Engine.Contracts().Load(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

// GetGraph handles GET /contracts/{name}/graph.
// With ?entity=<id> the entity's current state and history are highlighted.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	c, err := s.Engine.Contracts().Load(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	var overlay *graph.GraphOverlay
	if id := r.URL.Query().Get("entity"); id != "" {
		snap, err := s.Engine.Get(r.Context(), id)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		overlay = graph.OverlayFromSnapshot(snap)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, graph.GenerateMermaid(c, overlay))
}

// Validate handles POST /validate. The body is a YAML or JSON contract;
// ?format=yaml|json overrides detection.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "", "invalid request body")
		return
	}

	c, err := compiler.NewParser().Parse(data, compiler.Format(r.URL.Query().Get("format")))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "", fmt.Sprintf("parse contract: %v", err))
		return
	}

	report := validator.Validate(c).Report(c.Name)
	status := http.StatusOK
	if !report.Valid {
		status = http.StatusUnprocessableEntity
	}
	s.writeJSON(w, status, report)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "omnibase-http",
		"version": strings.TrimSpace(omnibase.Version),
	})
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	var ce *domain.ConfigurationError
	switch {
	case errors.As(err, &ce):
		s.writeError(w, http.StatusUnprocessableEntity, string(ce.Code), ce.Error())
	case errors.Is(err, domain.ErrEntityNotFound), errors.Is(err, domain.ErrContractNotFound):
		s.writeError(w, http.StatusNotFound, "", err.Error())
	default:
		s.logger.Error("request failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, "", err.Error())
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, msg string) {
	s.writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// StreamManager handles active SSE connections
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // EntityID -> Set of Channels
	logger      *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logging.NewNop(),
	}
}

func (sm *StreamManager) Subscribe(entityID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[entityID]; !ok {
		sm.subscribers[entityID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[entityID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[entityID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, entityID)
			}
		}
	}
}

func (sm *StreamManager) Broadcast(entityID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[entityID] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: client buffer full, dropping message", "entity_id", entityID)
		}
	}
}

// SubscribeEvents handles GET /entities/{id}/events (SSE).
// Each event is a snapshot diff. ?watch=state,context,history filters events
// to those touching at least one listed field.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "", "streaming not supported")
		return
	}

	entityID := chi.URLParam(r, "id")
	ch, cancel := s.Streams.Subscribe(entityID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	var watchList []string
	if watch := r.URL.Query().Get("watch"); watch != "" {
		watchList = strings.Split(watch, ",")
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watchList) > 0 && !matchesWatch(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func matchesWatch(msg string, fields []string) bool {
	var diff domain.SnapshotDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range fields {
		switch strings.TrimSpace(field) {
		case "state":
			if diff.CurrentState != nil {
				return true
			}
		case "context":
			if len(diff.Context) > 0 {
				return true
			}
		case "history":
			if len(diff.Appended) > 0 {
				return true
			}
		}
	}
	return false
}
