package mcp

import (
	"context"
	"errors"
	"testing"

	omnibase "github.com/OmniNode-ai/omnibase-core-sub006"
	"github.com/OmniNode-ai/omnibase-core-sub006/internal/validator"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/adapters/memory"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/dsl"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/ports"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/service"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts ...service.Option) *Server {
	t.Helper()
	contract := dsl.New("tickets").
		Persist().
		State("open").
		State("closed").Terminal().
		Transition("close").From("open").To("closed").On("close").When("resolved", "resolution exists true").
		MustBuild()
	loader, err := memory.NewLoader(contract)
	require.NoError(t, err)

	svc := service.New(loader, session.NewManager(memory.NewStore()), omnibase.NewExecutor(), opts...)
	return NewServer(svc, slogt.New(t))
}

func TestHandleValidate(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	doc := `{"name":"mini","initial_state":"a","states":[{"name":"a"},{"name":"b","is_terminal":true}],
		"transitions":[{"name":"go","from_state":"a","to_state":"b","trigger":"go"}]}`
	report, err := s.handleValidate(ctx, mcp.CallToolRequest{}, ValidateArgs{Document: doc})
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Equal(t, "mini", report.Contract)

	report, err = s.handleValidate(ctx, mcp.CallToolRequest{}, ValidateArgs{Document: `{"name":"empty"}`, Format: "json"})
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.Contains(t, codes(report.Errors), validator.CodeNoStates)

	_, err = s.handleValidate(ctx, mcp.CallToolRequest{}, ValidateArgs{Document: "name: [", Format: "yaml"})
	assert.Error(t, err)
}

func codes(findings []validator.Finding) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.Code)
	}
	return out
}

func TestHandleTransition(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleTransition(ctx, mcp.CallToolRequest{}, TransitionArgs{
		Contract: "tickets", EntityID: "t-1", Trigger: "close",
	})
	require.NoError(t, err)
	assert.False(t, resp.Result.Success)
	assert.Equal(t, []string{"resolved"}, resp.Result.FailedConditions)

	resp, err = s.handleTransition(ctx, mcp.CallToolRequest{}, TransitionArgs{
		Contract: "tickets", EntityID: "t-1", Trigger: "close",
		Metadata: `{"resolution":"fixed"}`, OperationID: "op-7",
	})
	require.NoError(t, err)
	assert.True(t, resp.Result.Success)
	assert.Equal(t, "closed", resp.Snapshot.CurrentState)
	assert.Equal(t, "op-7", resp.OperationID)

	_, err = s.handleTransition(ctx, mcp.CallToolRequest{}, TransitionArgs{
		Contract: "tickets", EntityID: "t-1", Trigger: "close",
	})
	assert.ErrorIs(t, err, domain.ErrTerminalState)
}

func TestHandleTransition_DispatchFailure(t *testing.T) {
	failing := ports.DispatcherFunc(func(context.Context, string, []domain.Intent) error {
		return errors.New("broker down")
	})
	s := newTestServer(t, service.WithDispatcher(failing))

	resp, err := s.handleTransition(context.Background(), mcp.CallToolRequest{}, TransitionArgs{
		Contract: "tickets", EntityID: "t-1", Trigger: "close", Context: `{"resolution":"fixed"}`,
	})
	require.NoError(t, err)
	assert.True(t, resp.Result.Success)
	assert.Equal(t, "closed", resp.Snapshot.CurrentState)
	assert.Equal(t, "broker down", resp.DispatchError)
}

func TestHandleTransition_InvalidJSON(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleTransition(ctx, mcp.CallToolRequest{}, TransitionArgs{Contract: "tickets", EntityID: "x", Metadata: "{"})
	assert.ErrorContains(t, err, "invalid metadata")

	_, err = s.handleTransition(ctx, mcp.CallToolRequest{}, TransitionArgs{Contract: "tickets", EntityID: "x", Context: "[]"})
	assert.ErrorContains(t, err, "invalid context")

	_, err = s.handleTransition(ctx, mcp.CallToolRequest{}, TransitionArgs{Contract: "tickets", EntityID: "x", Data: "nope"})
	assert.ErrorContains(t, err, "invalid data")
}

func TestHandleDescribe(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	desc, err := s.handleDescribe(ctx, mcp.CallToolRequest{}, DescribeArgs{Name: "tickets"})
	require.NoError(t, err)
	assert.Equal(t, "tickets", desc.Contract.Name)
	assert.Contains(t, desc.Mermaid, `open -- "close [resolved]" --> closed`)
	assert.Empty(t, desc.Current)

	_, err = s.handleTransition(ctx, mcp.CallToolRequest{}, TransitionArgs{
		Contract: "tickets", EntityID: "t-1", Trigger: "close", Context: `{"resolution":"dup"}`,
	})
	require.NoError(t, err)

	desc, err = s.handleDescribe(ctx, mcp.CallToolRequest{}, DescribeArgs{Name: "tickets", EntityID: "t-1"})
	require.NoError(t, err)
	assert.Equal(t, "closed", desc.Current)
	assert.Contains(t, desc.Mermaid, "class closed current;")

	_, err = s.handleDescribe(ctx, mcp.CallToolRequest{}, DescribeArgs{Name: "missing"})
	assert.ErrorIs(t, err, domain.ErrContractNotFound)
}

func TestReadContracts(t *testing.T) {
	s := newTestServer(t)

	contents, err := s.readContracts(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, ContractsURI, text.URI)
	assert.JSONEq(t, `["tickets"]`, text.Text)
}

func TestStructuredHandlerReportsErrors(t *testing.T) {
	s := newTestServer(t)

	req := mcp.CallToolRequest{}
	req.Params.Name = "execute_transition"
	req.Params.Arguments = map[string]any{"contract": "missing", "entity_id": "x"}

	result, err := mcp.NewStructuredToolHandler(s.handleTransition)(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
