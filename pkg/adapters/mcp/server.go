package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	omnibase "github.com/OmniNode-ai/omnibase-core-sub006"
	"github.com/OmniNode-ai/omnibase-core-sub006/internal/compiler"
	"github.com/OmniNode-ai/omnibase-core-sub006/internal/logging"
	"github.com/OmniNode-ai/omnibase-core-sub006/internal/presentation/graph"
	"github.com/OmniNode-ai/omnibase-core-sub006/internal/validator"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/ports"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ContractsURI is the resource listing the available contract names.
const ContractsURI = "omnibase://contracts"

// Engine is the entity service surface the tools need.
type Engine interface {
	Transition(ctx context.Context, req service.Request) (*service.Response, error)
	Get(ctx context.Context, entityID string) (*domain.Snapshot, error)
	Contracts() ports.ContractLoader
}

// ValidateArgs are the arguments of validate_contract.
type ValidateArgs struct {
	Document string `json:"document"`
	Format   string `json:"format,omitempty"`
}

// TransitionArgs are the arguments of execute_transition.
// Context, Metadata and Data are JSON documents.
type TransitionArgs struct {
	Contract    string `json:"contract"`
	EntityID    string `json:"entity_id"`
	Trigger     string `json:"trigger,omitempty"`
	Context     string `json:"context,omitempty"`
	Metadata    string `json:"metadata,omitempty"`
	Data        string `json:"data,omitempty"`
	OperationID string `json:"operation_id,omitempty"`
}

// DescribeArgs are the arguments of describe_contract.
type DescribeArgs struct {
	Name     string `json:"name"`
	EntityID string `json:"entity_id,omitempty"`
}

// ContractDescription is the result of describe_contract.
type ContractDescription struct {
	Contract *domain.Contract `json:"contract"`
	Mermaid  string           `json:"mermaid"`
	Current  string           `json:"current_state,omitempty"`
}

// Server wraps the entity service and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		engine:    engine,
		logger:    logger,
		mcpServer: server.NewMCPServer("omnibase-mcp", strings.TrimSpace(omnibase.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	validateTool := mcp.NewTool("validate_contract",
		mcp.WithDescription("Validate a YAML or JSON state machine contract and report errors and warnings."),
		mcp.WithString("document", mcp.Required(), mcp.Description("The contract document")),
		mcp.WithString("format", mcp.Description("yaml or json (detected when omitted)")),
		mcp.WithOutputSchema[validator.Report](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidate))

	transitionTool := mcp.NewTool("execute_transition",
		mcp.WithDescription("Apply one trigger to an entity. Guard failures are reported with success=false; dispatch_error is set when the transition was saved but its intents were not delivered."),
		mcp.WithString("contract", mcp.Required(), mcp.Description("Contract name")),
		mcp.WithString("entity_id", mcp.Required(), mcp.Description("Entity identifier")),
		mcp.WithString("trigger", mcp.Description("Trigger name (default \"process\")")),
		mcp.WithString("context", mcp.Description("JSON object merged into the stored entity context")),
		mcp.WithString("metadata", mcp.Description("JSON object visible to guards for this call only")),
		mcp.WithString("data", mcp.Description("JSON payload exposed to guards as \"data\"")),
		mcp.WithString("operation_id", mcp.Description("Operation identifier (generated when omitted)")),
	)
	s.mcpServer.AddTool(transitionTool, mcp.NewStructuredToolHandler(s.handleTransition))

	describeTool := mcp.NewTool("describe_contract",
		mcp.WithDescription("Return a contract definition and its Mermaid graph, optionally highlighting an entity."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Contract name")),
		mcp.WithString("entity_id", mcp.Description("Entity whose state is highlighted")),
	)
	s.mcpServer.AddTool(describeTool, mcp.NewStructuredToolHandler(s.handleDescribe))
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args ValidateArgs) (validator.Report, error) {
	c, err := compiler.NewParser().Parse([]byte(args.Document), compiler.Format(args.Format))
	if err != nil {
		return validator.Report{}, fmt.Errorf("parse contract: %w", err)
	}
	return validator.Validate(c).Report(c.Name), nil
}

func (s *Server) handleTransition(ctx context.Context, request mcp.CallToolRequest, args TransitionArgs) (*service.Response, error) {
	req := service.Request{
		Contract:    args.Contract,
		EntityID:    args.EntityID,
		Trigger:     args.Trigger,
		OperationID: args.OperationID,
	}

	var err error
	if req.Context, err = decodeMap("context", args.Context); err != nil {
		return nil, err
	}
	if req.Metadata, err = decodeMap("metadata", args.Metadata); err != nil {
		return nil, err
	}
	if args.Data != "" {
		if req.Data, err = domain.UnmarshalValue([]byte(args.Data)); err != nil {
			return nil, fmt.Errorf("invalid data: %w", err)
		}
	}

	resp, err := s.engine.Transition(ctx, req)
	if err != nil && resp != nil && errors.Is(err, service.ErrDispatch) {
		s.logger.Warn("MCP transition committed but dispatch failed", "entity_id", args.EntityID, "err", err)
		return resp, nil
	}
	if err != nil {
		var ce *domain.ConfigurationError
		if errors.As(err, &ce) {
			s.logger.Warn("MCP transition raised configuration error", "code", string(ce.Code), "entity_id", args.EntityID)
		}
		return nil, err
	}
	return resp, nil
}

func (s *Server) handleDescribe(ctx context.Context, request mcp.CallToolRequest, args DescribeArgs) (ContractDescription, error) {
	c, err := s.engine.Contracts().Load(ctx, args.Name)
	if err != nil {
		return ContractDescription{}, err
	}

	desc := ContractDescription{Contract: c}
	var overlay *graph.GraphOverlay
	if args.EntityID != "" {
		snap, err := s.engine.Get(ctx, args.EntityID)
		if err != nil {
			return ContractDescription{}, err
		}
		overlay = graph.OverlayFromSnapshot(snap)
		desc.Current = snap.CurrentState
	}
	desc.Mermaid = graph.GenerateMermaid(c, overlay)
	return desc, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ContractsURI, "Available contracts",
		mcp.WithMIMEType("application/json"),
	), s.readContracts)
}

func (s *Server) readContracts(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	names, err := s.engine.Contracts().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	jsonBytes, err := json.Marshal(names)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ContractsURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

func decodeMap(field, raw string) (domain.Map, error) {
	if raw == "" {
		return nil, nil
	}
	var m domain.Map
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", field, err)
	}
	return m, nil
}
