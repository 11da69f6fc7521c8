package omnibase

import (
	"context"
	"errors"
	"testing"

	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func divergedNode(t *testing.T, opts ...Option) *Node {
	t.Helper()
	contract := dsl.New("orders").
		State("pending").
		State("processing").
		State("done").Terminal().
		Transition("start").From("pending").To("processing").On("go").
		Transition("finish").From("processing").To("done").On("finish").
		MustBuild()
	node, err := New(contract, opts...)
	require.NoError(t, err)

	node.snapshot = &domain.Snapshot{CurrentState: "processing", History: []string{"pending", "processing"}}
	return node
}

func goInput() Input {
	return Input{Metadata: domain.Map{domain.KeyTrigger: domain.String("go")}}
}

func TestNode_DivergedStateRaises(t *testing.T) {
	node := divergedNode(t)

	out, err := node.Process(context.Background(), goInput())
	require.Error(t, err)
	assert.Nil(t, out)

	var ce *domain.ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, domain.CodeStateDivergence, ce.Code)
	assert.ErrorIs(t, err, domain.ErrStateDivergence)
	assert.Equal(t, "pending", node.CurrentState(), "state must not move after a divergence error")
}

func TestNode_DivergenceCheckDisabled(t *testing.T) {
	node := divergedNode(t, WithDivergenceCheck(false))

	out, err := node.Process(context.Background(), Input{Metadata: domain.Map{domain.KeyTrigger: domain.String("finish")}})
	require.NoError(t, err)
	assert.Equal(t, domain.Bool(true), out.Metadata[MetaSuccess])
	assert.Equal(t, "done", node.CurrentState())
}
