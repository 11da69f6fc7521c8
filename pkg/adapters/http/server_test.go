package http

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	omnibase "github.com/OmniNode-ai/omnibase-core-sub006"
	"github.com/OmniNode-ai/omnibase-core-sub006/internal/validator"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/adapters/memory"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/dsl"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/observability"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/ports"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/service"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/session"
	"github.com/neilotoole/slogt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ordersYAML = `
name: orders
initial_state: pending
states:
  - name: pending
  - name: done
    is_terminal: true
transitions:
  - name: finish
    from_state: pending
    to_state: done
    trigger: finish
`

func newTestHandler(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	contract := dsl.New("orders").
		State("pending").
		State("processing").
		State("done").Terminal().
		Transition("start").From("pending").To("processing").On("go").When("positive", "amount greater_than 0").
		Transition("finish").From("processing").To("done").On("finish").
		MustBuild()
	loader, err := memory.NewLoader(contract)
	require.NoError(t, err)

	svc := service.New(loader, session.NewManager(memory.NewStore()), omnibase.NewExecutor(),
		service.WithLogger(slogt.New(t)))
	return NewHandler(svc, append([]Option{WithLogger(slogt.New(t))}, opts...)...)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestGetHealth(t *testing.T) {
	rr := do(t, newTestHandler(t), "GET", "/health", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestGetInfo(t *testing.T) {
	rr := do(t, newTestHandler(t), "GET", "/info", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "omnibase-http", resp["app"])
	assert.Equal(t, omnibase.Version, resp["version"])
}

func TestTransition(t *testing.T) {
	h := newTestHandler(t)

	rr := do(t, h, "POST", "/entities/order-1/transitions",
		`{"contract":"orders","trigger":"go","metadata":{"amount":5},"operation_id":"op-1"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp service.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Result.Success)
	assert.Equal(t, "processing", resp.Snapshot.CurrentState)
	assert.Equal(t, "op-1", resp.OperationID)
	assert.NotEmpty(t, resp.Fingerprint)

	rr = do(t, h, "GET", "/entities/order-1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.Equal(t, "processing", snap.CurrentState)
}

func TestTransition_DataIsVisibleToGuards(t *testing.T) {
	h := newTestHandler(t)

	body := `{"contract":"orders","trigger":"go","data":{"n":1},"context":{"amount":0}}`
	rr := do(t, h, "POST", "/entities/order-1/transitions", body)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp service.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.Result.Success)
	assert.Equal(t, domain.FailureConditionsNotMet, resp.Result.FailureClass)
	assert.Equal(t, []string{"positive"}, resp.Result.FailedConditions)
}

func TestTransition_DispatchFailureKeepsCommittedResult(t *testing.T) {
	contract := dsl.New("orders").
		Persist().
		State("pending").
		State("done").Terminal().
		Transition("finish").From("pending").To("done").On("finish").
		MustBuild()
	loader, err := memory.NewLoader(contract)
	require.NoError(t, err)

	failing := ports.DispatcherFunc(func(context.Context, string, []domain.Intent) error {
		return errors.New("broker down")
	})
	svc := service.New(loader, session.NewManager(memory.NewStore()), omnibase.NewExecutor(),
		service.WithLogger(slogt.New(t)), service.WithDispatcher(failing))
	h := NewHandler(svc, WithLogger(slogt.New(t)))

	rr := do(t, h, "POST", "/entities/order-1/transitions", `{"contract":"orders","trigger":"finish"}`)
	require.Equal(t, http.StatusBadGateway, rr.Code, rr.Body.String())

	var resp service.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Result.Success)
	assert.Equal(t, "done", resp.Snapshot.CurrentState)
	assert.Equal(t, "broker down", resp.DispatchError)

	rr = do(t, h, "GET", "/entities/order-1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.Equal(t, "done", snap.CurrentState)
}

func TestTransition_Errors(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name   string
		target string
		body   string
		status int
		code   string
	}{
		{"bad body", "/entities/e/transitions", `{`, http.StatusBadRequest, ""},
		{"bad data", "/entities/e/transitions", `{"contract":"orders","data":[1,}`, http.StatusBadRequest, ""},
		{"unknown contract", "/entities/e/transitions", `{"contract":"nope","trigger":"go"}`, http.StatusNotFound, ""},
		{"no matching transition", "/entities/e/transitions", `{"contract":"orders","trigger":"finish"}`, http.StatusUnprocessableEntity, string(domain.CodeNoMatchingTransition)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, "POST", tt.target, tt.body)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestEntities(t *testing.T) {
	h := newTestHandler(t)

	assert.Equal(t, http.StatusNotFound, do(t, h, "GET", "/entities/ghost", "").Code)

	rr := do(t, h, "GET", "/entities", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	require.Equal(t, http.StatusOK, do(t, h, "POST", "/entities/a/transitions",
		`{"contract":"orders","trigger":"go","metadata":{"amount":1}}`).Code)

	rr = do(t, h, "GET", "/entities", "")
	assert.JSONEq(t, `["a"]`, rr.Body.String())

	assert.Equal(t, http.StatusNoContent, do(t, h, "DELETE", "/entities/a", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, "GET", "/entities/a", "").Code)
}

func TestContracts(t *testing.T) {
	h := newTestHandler(t)

	rr := do(t, h, "GET", "/contracts", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `["orders"]`, rr.Body.String())

	rr = do(t, h, "GET", "/contracts/orders", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var c domain.Contract
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &c))
	assert.Equal(t, "pending", c.InitialState)
	assert.Len(t, c.Transitions, 2)

	assert.Equal(t, http.StatusNotFound, do(t, h, "GET", "/contracts/nope", "").Code)
}

func TestGetGraph(t *testing.T) {
	h := newTestHandler(t)
	require.Equal(t, http.StatusOK, do(t, h, "POST", "/entities/a/transitions",
		`{"contract":"orders","trigger":"go","metadata":{"amount":1}}`).Code)

	rr := do(t, h, "GET", "/contracts/orders/graph", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `pending -- "go [positive]" --> processing`)
	assert.NotContains(t, rr.Body.String(), "class processing current;")

	rr = do(t, h, "GET", "/contracts/orders/graph?entity=a", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "class processing current;")
}

func TestValidate(t *testing.T) {
	h := newTestHandler(t)

	rr := do(t, h, "POST", "/validate", ordersYAML)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var report validator.Report
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	assert.True(t, report.Valid)
	assert.Equal(t, "orders", report.Contract)

	broken := strings.Replace(ordersYAML, "to_state: done", "to_state: nowhere", 1)
	rr = do(t, h, "POST", "/validate", broken)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	assert.False(t, report.Valid)
	require.NotEmpty(t, report.Errors)
	assert.Equal(t, validator.CodeUnknownTargetState, report.Errors[0].Code)

	assert.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/validate?format=json", ordersYAML).Code)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	metrics.Hooks().OnTransition(context.Background(), &domain.TransitionEvent{
		EventBase:      domain.EventBase{FSMName: "orders", Type: domain.EventTransition},
		TransitionName: "start",
		Success:        true,
	})

	h := newTestHandler(t, WithMetrics(reg))
	rr := do(t, h, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "omnibase_transitions_total")

	assert.Equal(t, http.StatusNotFound, do(t, newTestHandler(t), "GET", "/metrics", "").Code)
}

func TestSubscribeEvents(t *testing.T) {
	srv := httptest.NewServer(newTestHandler(t))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/entities/order-1/events?watch=state", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	post, err := srv.Client().Post(srv.URL+"/entities/order-1/transitions", "application/json",
		strings.NewReader(`{"contract":"orders","trigger":"go","metadata":{"amount":2}}`))
	require.NoError(t, err)
	post.Body.Close()
	require.Equal(t, http.StatusOK, post.StatusCode)

	var event string
	for lines.Scan() {
		if strings.HasPrefix(lines.Text(), "data: {") {
			event = strings.TrimPrefix(lines.Text(), "data: ")
			break
		}
	}
	var diff domain.SnapshotDiff
	require.NoError(t, json.Unmarshal([]byte(event), &diff))
	assert.Equal(t, "order-1", diff.EntityID)
	require.NotNil(t, diff.CurrentState)
	assert.Equal(t, "processing", *diff.CurrentState)
}

func TestMatchesWatch(t *testing.T) {
	msg := `{"entity_id":"e","context":{"a":1}}`
	assert.True(t, matchesWatch(msg, []string{"context"}))
	assert.False(t, matchesWatch(msg, []string{"state", "history"}))
	assert.True(t, matchesWatch("not json", []string{"state"}))
}
