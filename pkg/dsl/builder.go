package dsl

import (
	"github.com/OmniNode-ai/omnibase-core-sub006/internal/validator"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
)

// Builder manages the contract construction.
// States and transitions keep the order in which they are first added.
type Builder struct {
	contract    domain.Contract
	states      []*StateBuilder
	transitions []*TransitionBuilder
}

// New creates a new contract builder.
func New(name string) *Builder {
	return &Builder{
		contract: domain.Contract{Name: name, Version: "1.0.0"},
	}
}

// Version sets the contract version.
func (b *Builder) Version(v string) *Builder {
	b.contract.Version = v
	return b
}

// Describe sets the contract description.
func (b *Builder) Describe(text string) *Builder {
	b.contract.Description = text
	return b
}

// Initial sets the initial state.
func (b *Builder) Initial(state string) *Builder {
	b.contract.InitialState = state
	return b
}

// Persist enables persistence intents.
func (b *Builder) Persist() *Builder {
	b.contract.Flags.PersistenceEnabled = true
	return b
}

// Strict enables strict validation (warnings reject the contract).
func (b *Builder) Strict() *Builder {
	b.contract.Flags.StrictValidation = true
	return b
}

// ErrorStates lists states that represent failures.
func (b *Builder) ErrorStates(names ...string) *Builder {
	b.contract.ErrorStates = append(b.contract.ErrorStates, names...)
	return b
}

// State adds a state to the contract.
// If the state already exists, it returns the existing builder.
func (b *Builder) State(name string) *StateBuilder {
	for _, sb := range b.states {
		if sb.state.Name == name {
			return sb
		}
	}
	sb := &StateBuilder{state: domain.StateDefinition{Name: name}, builder: b}
	b.states = append(b.states, sb)
	return sb
}

// Transition adds a transition to the contract.
// If the transition already exists, it returns the existing builder.
func (b *Builder) Transition(name string) *TransitionBuilder {
	for _, tb := range b.transitions {
		if tb.transition.Name == name {
			return tb
		}
	}
	tb := &TransitionBuilder{transition: domain.TransitionDefinition{Name: name}, builder: b}
	b.transitions = append(b.transitions, tb)
	return tb
}

// Contract assembles the contract without validating it.
func (b *Builder) Contract() *domain.Contract {
	c := b.contract
	c.States = make([]domain.StateDefinition, 0, len(b.states))
	c.TerminalStates = nil
	for _, sb := range b.states {
		c.States = append(c.States, sb.state)
		if sb.state.IsTerminal {
			c.TerminalStates = append(c.TerminalStates, sb.state.Name)
		}
	}
	c.Transitions = make([]domain.TransitionDefinition, 0, len(b.transitions))
	for _, tb := range b.transitions {
		c.Transitions = append(c.Transitions, tb.transition)
	}
	if c.InitialState == "" && len(c.States) > 0 {
		c.InitialState = c.States[0].Name
	}
	return &c
}

// Build assembles and validates the contract.
// The returned error wraps domain.ErrInvalidContract on rejection.
func (b *Builder) Build() (*domain.Contract, error) {
	c := b.Contract()
	if err := validator.Validate(c).Err(); err != nil {
		return nil, err
	}
	return c, nil
}

// MustBuild is like Build but panics on an invalid contract.
func (b *Builder) MustBuild() *domain.Contract {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}
