package omnibase_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	omnibase "github.com/OmniNode-ai/omnibase-core-sub006"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ordersBuilder() *dsl.Builder {
	b := dsl.New("orders")
	b.State("pending").Exit("log_exit")
	b.State("processing").Entry("notify")
	b.State("done").Terminal()
	b.Transition("start").From("pending").To("processing").On("go")
	b.Transition("finish").From("processing").To("done").On("finish")
	return b
}

func trigger(name string) omnibase.Input {
	return omnibase.Input{Metadata: domain.Map{domain.KeyTrigger: domain.String(name)}}
}

func TestNode_StartsAtInitialState(t *testing.T) {
	node, err := omnibase.New(ordersBuilder().MustBuild())
	require.NoError(t, err)
	assert.Equal(t, "pending", node.CurrentState())
	assert.Equal(t, "orders", node.Contract().Name)
}

func TestNode_RejectsInvalidContract(t *testing.T) {
	c := ordersBuilder().Contract()
	c.InitialState = "missing"

	node, err := omnibase.New(c)
	assert.Nil(t, node)
	assert.ErrorIs(t, err, domain.ErrInvalidContract)
}

func TestNode_SimpleTransition(t *testing.T) {
	node, err := omnibase.New(ordersBuilder().MustBuild())
	require.NoError(t, err)

	out, err := node.Process(context.Background(), trigger("go"))
	require.NoError(t, err)

	assert.Equal(t, "processing", node.CurrentState())
	assert.Equal(t, domain.String("processing"), out.Result)
	assert.Equal(t, domain.Bool(true), out.Metadata[omnibase.MetaSuccess])
	assert.Equal(t, domain.String("pending"), out.Metadata[omnibase.MetaPreviousState])
	assert.Equal(t, domain.String("start"), out.Metadata[omnibase.MetaTransitionName])

	require.Len(t, out.Intents, 2)
	assert.Equal(t, domain.IntentExitAction, out.Intents[0].Type)
	assert.Equal(t, "log_exit", out.Intents[0].Target)
	assert.Equal(t, domain.IntentEntryAction, out.Intents[1].Type)
	assert.Equal(t, "notify", out.Intents[1].Target)
	for _, intent := range out.Intents {
		assert.NotEqual(t, domain.IntentPersistState, intent.Type)
	}
}

func TestNode_TerminalStateRaises(t *testing.T) {
	node, err := omnibase.New(ordersBuilder().MustBuild())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = node.Process(ctx, trigger("go"))
	require.NoError(t, err)
	_, err = node.Process(ctx, trigger("finish"))
	require.NoError(t, err)
	require.Equal(t, "done", node.CurrentState())

	out, err := node.Process(ctx, trigger("finish"))
	assert.Nil(t, out)

	var ce *domain.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, domain.CodeTerminalState, ce.Code)
	assert.ErrorIs(t, err, domain.ErrTerminalState)
	assert.Equal(t, "done", node.CurrentState())
}

func TestNode_EvaluationErrorIsStructured(t *testing.T) {
	b := ordersBuilder()
	b.Transition("start").When("positive", "amount greater_than 0")
	node, err := omnibase.New(b.MustBuild())
	require.NoError(t, err)

	in := trigger("go")
	in.Metadata["amount"] = domain.String("abc")

	out, err := node.Process(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, domain.Null{}, out.Result)
	assert.Equal(t, domain.Bool(false), out.Metadata[omnibase.MetaSuccess])
	assert.Equal(t, domain.String(domain.FailureConditionEvaluationError), out.Metadata[omnibase.MetaFailureReason])
	assert.Equal(t, domain.Null{}, out.Metadata[omnibase.MetaFailedConditions])
	assert.Equal(t, domain.String("start"), out.Metadata[omnibase.MetaTransitionName])
	assert.NotEqual(t, domain.Null{}, out.Metadata[omnibase.MetaErrorMessage])
	assert.Empty(t, out.Intents)
	assert.Equal(t, "pending", node.CurrentState())
}

func TestNode_WildcardPriority(t *testing.T) {
	b := ordersBuilder()
	b.State("cancelled").Terminal()
	b.State("archived").Terminal()
	b.Transition("cancel_low").Any().To("archived").On("cancel").Priority(1)
	b.Transition("cancel_high").Any().To("cancelled").On("cancel").Priority(10)

	node, err := omnibase.New(b.MustBuild())
	require.NoError(t, err)

	out, err := node.Process(context.Background(), trigger("cancel"))
	require.NoError(t, err)
	assert.Equal(t, domain.String("cancel_high"), out.Metadata[omnibase.MetaTransitionName])
	assert.Equal(t, "cancelled", node.CurrentState())
}

func TestNode_SummaryKeysAreFixed(t *testing.T) {
	b := ordersBuilder()
	b.Transition("start").When("positive", "amount greater_than 0")
	node, err := omnibase.New(b.MustBuild())
	require.NoError(t, err)
	ctx := context.Background()

	blocked := trigger("go")
	blocked.Metadata["amount"] = domain.Number(0)
	passing := trigger("go")
	passing.Metadata["amount"] = domain.Number(5)

	for _, in := range []omnibase.Input{blocked, passing} {
		out, err := node.Process(ctx, in)
		require.NoError(t, err)
		keys := make([]string, 0, len(out.Metadata))
		for k := range out.Metadata {
			keys = append(keys, k)
		}
		assert.ElementsMatch(t, omnibase.SummaryKeys, keys)
	}
}

func TestNode_GuardFailureKeepsState(t *testing.T) {
	b := ordersBuilder()
	b.Transition("start").When("positive", "amount greater_than 0")
	node, err := omnibase.New(b.MustBuild())
	require.NoError(t, err)

	in := trigger("go")
	in.Metadata["amount"] = domain.Number(-1)

	out, err := node.Process(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "pending", node.CurrentState())
	assert.Equal(t, domain.String(domain.FailureConditionsNotMet), out.Metadata[omnibase.MetaFailureReason])
	assert.Equal(t, domain.List{domain.String("positive")}, out.Metadata[omnibase.MetaFailedConditions])
	assert.Equal(t, domain.String("pending"), out.Metadata[omnibase.MetaNewState])
}

func TestNode_NoMatchingTransitionRaises(t *testing.T) {
	node, err := omnibase.New(ordersBuilder().MustBuild())
	require.NoError(t, err)

	_, err = node.Process(context.Background(), trigger("unknown"))
	var ce *domain.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, domain.CodeNoMatchingTransition, ce.Code)
	assert.Equal(t, "pending", node.CurrentState())
}

func TestNode_DefaultTrigger(t *testing.T) {
	b := ordersBuilder()
	b.Transition("auto").From("pending").To("processing").On(domain.DefaultTrigger)
	node, err := omnibase.New(b.MustBuild())
	require.NoError(t, err)

	out, err := node.Process(context.Background(), omnibase.Input{})
	require.NoError(t, err)
	assert.Equal(t, domain.String("auto"), out.Metadata[omnibase.MetaTransitionName])
}

func TestNode_ReservedKeysWinOverMetadata(t *testing.T) {
	b := ordersBuilder()
	b.Transition("start").When("from_payload", "data equals payload")
	node, err := omnibase.New(b.MustBuild())
	require.NoError(t, err)

	in := trigger("go")
	in.Data = domain.String("payload")
	in.OperationID = "op-7"
	in.Metadata[domain.KeyData] = domain.String("spoofed")
	in.Metadata[domain.KeyOperationID] = domain.String("spoofed")

	out, err := node.Process(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, domain.Bool(true), out.Metadata[omnibase.MetaSuccess])

	require.NotEmpty(t, out.Intents)
	warning := out.Intents[0]
	assert.Equal(t, domain.IntentContextCollisionWarning, warning.Type)
	assert.Equal(t, domain.List{domain.String("data"), domain.String("operation_id")}, warning.Payload[domain.PayloadCollidingKeys])
	assert.Equal(t, domain.String("op-7"), warning.Payload[domain.PayloadOperationID])
	assert.Equal(t, "op-7:0", out.Intents[1].ID)
}

func TestNode_GeneratedOperationID(t *testing.T) {
	node, err := omnibase.New(ordersBuilder().MustBuild(),
		omnibase.WithOperationIDs(func() string { return "gen-1" }))
	require.NoError(t, err)

	out, err := node.Process(context.Background(), trigger("go"))
	require.NoError(t, err)
	require.NotEmpty(t, out.Intents)
	assert.Equal(t, "gen-1:0", out.Intents[0].ID)
	assert.Equal(t, domain.String("gen-1"), out.Intents[0].Payload[domain.PayloadOperationID])
}

func TestNode_PersistenceUsesInjectedClock(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	node, err := omnibase.New(ordersBuilder().Persist().MustBuild(),
		omnibase.WithClock(func() time.Time { return at }))
	require.NoError(t, err)

	in := trigger("go")
	in.OperationID = "op-1"
	out, err := node.Process(context.Background(), in)
	require.NoError(t, err)

	last := out.Intents[len(out.Intents)-1]
	assert.Equal(t, domain.IntentPersistState, last.Type)
	assert.Equal(t, domain.String("2024-01-02T03:04:05Z"), last.Payload[domain.PayloadTimestamp])
	assert.Equal(t, domain.String("processing"), last.Payload[domain.PayloadState])
	assert.Equal(t, domain.String("pending"), last.Payload[domain.PayloadPreviousState])
}

func TestNode_UnknownOperatorRaises(t *testing.T) {
	b := ordersBuilder()
	b.Transition("start").Advise("odd", "amount roughly 3")
	node, err := omnibase.New(b.MustBuild())
	require.NoError(t, err)

	_, err = node.Process(context.Background(), trigger("go"))
	assert.ErrorIs(t, err, domain.ErrUnknownOperator)
	assert.Equal(t, "pending", node.CurrentState())
}

func TestNode_LifecycleHooks(t *testing.T) {
	var transitions, failures, errs int
	hooks := domain.LifecycleHooks{
		OnTransition:         func(context.Context, *domain.TransitionEvent) { transitions++ },
		OnGuardFailure:       func(context.Context, *domain.TransitionEvent) { failures++ },
		OnConfigurationError: func(context.Context, *domain.ErrorEvent) { errs++ },
	}
	b := ordersBuilder()
	b.Transition("start").When("positive", "amount greater_than 0")
	node, err := omnibase.New(b.MustBuild(), omnibase.WithLifecycleHooks(hooks))
	require.NoError(t, err)
	ctx := context.Background()

	_, _ = node.Process(ctx, trigger("go"))
	_, _ = node.Process(ctx, trigger("nope"))
	ok := trigger("go")
	ok.Metadata["amount"] = domain.Number(1)
	_, _ = node.Process(ctx, ok)

	assert.Equal(t, 1, transitions)
	assert.Equal(t, 1, failures)
	assert.Equal(t, 1, errs)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.yaml")
	doc := []byte(`name: orders
version: "1.0.0"
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
`)
	require.NoError(t, os.WriteFile(path, doc, 0644))

	node, err := omnibase.Load(path)
	require.NoError(t, err)

	out, err := node.Process(context.Background(), trigger("finish"))
	require.NoError(t, err)
	assert.Equal(t, domain.String("done"), out.Result)
}

func TestLoad_InvalidContract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: broken\nstates: []\ntransitions: []\n"), 0644))

	_, err := omnibase.LoadContract(path)
	assert.True(t, errors.Is(err, domain.ErrInvalidContract))
}

func TestExecutor_Stateless(t *testing.T) {
	contract := ordersBuilder().MustBuild()
	exec := omnibase.NewExecutor()

	snap := domain.NewSnapshot("pending")
	res, next, err := exec.Execute(context.Background(), contract, snap, "go")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "processing", next.CurrentState)
	assert.Equal(t, "pending", snap.CurrentState)
}

func TestExecutor_ReplayWithInjectedClock(t *testing.T) {
	contract := ordersBuilder().Persist().MustBuild()
	now := time.Date(2026, 3, 4, 5, 6, 7, 8, time.UTC)
	exec := omnibase.NewExecutor(omnibase.WithClock(func() time.Time { return now }))
	execCtx := domain.Map{domain.KeyOperationID: domain.String("op-1")}

	run := func() []byte {
		res, next, err := exec.ExecuteWith(context.Background(), contract, domain.NewSnapshot("pending"), "go", execCtx)
		require.NoError(t, err)
		b, err := json.Marshal(struct {
			Result *domain.TransitionResult
			State  string
		}{res, next.CurrentState})
		require.NoError(t, err)
		return b
	}

	first := run()
	assert.Equal(t, string(first), string(run()))
	assert.Contains(t, string(first), now.Format(time.RFC3339Nano))
}
