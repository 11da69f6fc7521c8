package dsl

import (
	"testing"

	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_SimpleFlow(t *testing.T) {
	b := New("orders").Version("2.0.0").Persist()

	b.State("pending").Exit("log_exit").
		State("processing").Entry("reserve_stock", "notify").
		Declare(domain.Action{Name: "reserve_stock", Type: "inventory", Critical: true})
	b.State("done").Terminal()

	b.Transition("start").From("pending").To("processing").On("go").
		When("has_amount", "amount greater_than 0").
		Advise("vip", "tier equals gold").
		Do("charge", "payment").
		Transition("finish").From("processing").To("done").On("go")
	b.Transition("cancel").Any().To("done").On("cancel").Priority(10)

	c, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, "orders", c.Name)
	assert.Equal(t, "2.0.0", c.Version)
	assert.Equal(t, "pending", c.InitialState)
	assert.True(t, c.Flags.PersistenceEnabled)
	assert.Equal(t, []string{"done"}, c.TerminalStates)

	require.Len(t, c.Transitions, 3)
	assert.Equal(t, "start", c.Transitions[0].Name)
	assert.Equal(t, domain.Wildcard, c.Transitions[2].FromState)
	assert.True(t, c.Transitions[0].Conditions[0].IsRequired())
	assert.False(t, c.Transitions[0].Conditions[1].IsRequired())

	processing := c.State("processing")
	require.NotNil(t, processing)
	assert.Equal(t, []string{"reserve_stock", "notify"}, processing.EntryActions)
}

func TestBuilder_ReusesExistingEntries(t *testing.T) {
	b := New("x")
	b.State("a").Type("first")
	b.State("a").Entry("hello")

	c := b.Contract()
	require.Len(t, c.States, 1)
	assert.Equal(t, "first", c.States[0].Type)
	assert.Equal(t, []string{"hello"}, c.States[0].EntryActions)
}

func TestBuilder_RejectsInvalidContract(t *testing.T) {
	b := New("broken")
	b.State("a")
	b.Transition("t").From("a").To("ghost").On("go")

	_, err := b.Build()
	assert.ErrorIs(t, err, domain.ErrInvalidContract)
	assert.Panics(t, func() { b.MustBuild() })
}
