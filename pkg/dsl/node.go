package dsl

import "github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"

// StateBuilder provides a fluent API for configuring a state.
type StateBuilder struct {
	state   domain.StateDefinition
	builder *Builder
}

// Type sets the free-form type tag.
func (s *StateBuilder) Type(tag string) *StateBuilder {
	s.state.Type = tag
	return s
}

// Terminal marks the state as terminal (no outgoing transitions).
func (s *StateBuilder) Terminal() *StateBuilder {
	s.state.IsTerminal = true
	return s
}

// Entry appends entry action names.
func (s *StateBuilder) Entry(names ...string) *StateBuilder {
	s.state.EntryActions = append(s.state.EntryActions, names...)
	return s
}

// Exit appends exit action names.
func (s *StateBuilder) Exit(names ...string) *StateBuilder {
	s.state.ExitActions = append(s.state.ExitActions, names...)
	return s
}

// Declare registers a typed action referenced by Entry or Exit.
func (s *StateBuilder) Declare(action domain.Action) *StateBuilder {
	s.state.Actions = append(s.state.Actions, action)
	return s
}

// State continues with another state of the same contract.
func (s *StateBuilder) State(name string) *StateBuilder {
	return s.builder.State(name)
}

// Transition continues with a transition of the same contract.
func (s *StateBuilder) Transition(name string) *TransitionBuilder {
	return s.builder.Transition(name)
}

// MustBuild builds the whole contract. See Builder.MustBuild.
func (s *StateBuilder) MustBuild() *domain.Contract {
	return s.builder.MustBuild()
}

// Build returns the underlying domain.StateDefinition.
func (s *StateBuilder) Build() domain.StateDefinition {
	return s.state
}

// TransitionBuilder provides a fluent API for configuring a transition.
type TransitionBuilder struct {
	transition domain.TransitionDefinition
	builder    *Builder
}

// From sets the source state. Use domain.Wildcard or Any for every state.
func (t *TransitionBuilder) From(state string) *TransitionBuilder {
	t.transition.FromState = state
	return t
}

// Any makes the transition a wildcard transition.
func (t *TransitionBuilder) Any() *TransitionBuilder {
	t.transition.FromState = domain.Wildcard
	return t
}

// To sets the target state.
func (t *TransitionBuilder) To(state string) *TransitionBuilder {
	t.transition.ToState = state
	return t
}

// On sets the trigger.
func (t *TransitionBuilder) On(trigger string) *TransitionBuilder {
	t.transition.Trigger = trigger
	return t
}

// Priority sets the priority within its specificity tier.
func (t *TransitionBuilder) Priority(p int) *TransitionBuilder {
	t.transition.Priority = p
	return t
}

// When adds a required guard.
func (t *TransitionBuilder) When(name, expression string) *TransitionBuilder {
	t.transition.Conditions = append(t.transition.Conditions, domain.GuardCondition{
		Name:       name,
		Expression: expression,
	})
	return t
}

// Advise adds an optional (advisory) guard.
func (t *TransitionBuilder) Advise(name, expression string) *TransitionBuilder {
	required := false
	t.transition.Conditions = append(t.transition.Conditions, domain.GuardCondition{
		Name:       name,
		Expression: expression,
		Required:   &required,
	})
	return t
}

// Do appends a transition action.
func (t *TransitionBuilder) Do(name, actionType string) *TransitionBuilder {
	t.transition.Actions = append(t.transition.Actions, domain.Action{Name: name, Type: actionType})
	return t
}

// DoAction appends a fully specified transition action.
func (t *TransitionBuilder) DoAction(action domain.Action) *TransitionBuilder {
	t.transition.Actions = append(t.transition.Actions, action)
	return t
}

// Transition continues with another transition of the same contract.
func (t *TransitionBuilder) Transition(name string) *TransitionBuilder {
	return t.builder.Transition(name)
}

// State continues with a state of the same contract.
func (t *TransitionBuilder) State(name string) *StateBuilder {
	return t.builder.State(name)
}

// MustBuild builds the whole contract. See Builder.MustBuild.
func (t *TransitionBuilder) MustBuild() *domain.Contract {
	return t.builder.MustBuild()
}

// Build returns the underlying domain.TransitionDefinition.
func (t *TransitionBuilder) Build() domain.TransitionDefinition {
	return t.transition
}
