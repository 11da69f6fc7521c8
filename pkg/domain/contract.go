package domain

// Contract is the declarative definition of a state machine.
// A Contract is immutable once loaded: the engine only reads it.
// The order of States, Transitions, Conditions and Actions is significant
// and is used for tie-breaking.
type Contract struct {
	Name           string                 `json:"name"`
	Version        string                 `json:"version"`
	Description    string                 `json:"description,omitempty"`
	InitialState   string                 `json:"initial_state"`
	States         []StateDefinition      `json:"states"`
	Transitions    []TransitionDefinition `json:"transitions"`
	TerminalStates []string               `json:"terminal_states,omitempty"`
	ErrorStates    []string               `json:"error_states,omitempty"`
	Flags          ContractFlags          `json:"flags"`
	Reserved       ReservedFields         `json:"reserved,omitempty"`
}

// ContractFlags toggles contract-wide behavior.
type ContractFlags struct {
	PersistenceEnabled bool `json:"persistence_enabled"`
	StrictValidation   bool `json:"strict_validation"`
	RecoveryEnabled    bool `json:"recovery_enabled"`
	RollbackEnabled    bool `json:"rollback_enabled"`
}

// ReservedFields carries configuration for features the engine accepts but does not execute
// (parallel regions, hierarchy, retries, rollback, recovery).
type ReservedFields struct {
	Parallel     map[string]any `json:"parallel,omitempty"`
	Hierarchical map[string]any `json:"hierarchical,omitempty"`
	Retry        map[string]any `json:"retry,omitempty"`
	Rollback     map[string]any `json:"rollback,omitempty"`
	Recovery     map[string]any `json:"recovery,omitempty"`
}

// StateDefinition declares one state.
// EntryActions and ExitActions name actions; a name that matches an entry in Actions
// uses that declaration, otherwise it is treated as a plain state action.
type StateDefinition struct {
	Name         string   `json:"name"`
	Type         string   `json:"type,omitempty"`
	IsTerminal   bool     `json:"is_terminal,omitempty"`
	EntryActions []string `json:"entry_actions,omitempty"`
	ExitActions  []string `json:"exit_actions,omitempty"`
	Actions      []Action `json:"actions,omitempty"`
}

// TransitionDefinition declares an edge between two states.
// FromState may be Wildcard; ToState may not.
type TransitionDefinition struct {
	Name       string           `json:"name"`
	FromState  string           `json:"from_state"`
	ToState    string           `json:"to_state"`
	Trigger    string           `json:"trigger"`
	Priority   int              `json:"priority"`
	Conditions []GuardCondition `json:"conditions,omitempty"`
	Actions    []Action         `json:"actions,omitempty"`
}

// GuardCondition is a named three-token expression ("field operator value").
type GuardCondition struct {
	Name         string `json:"name"`
	Expression   string `json:"expression"`
	Required     *bool  `json:"required,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// IsRequired reports whether the guard blocks the transition. Defaults to true.
func (g GuardCondition) IsRequired() bool {
	return g.Required == nil || *g.Required
}

// Action is a named side effect the engine turns into an intent.
type Action struct {
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Order    int    `json:"order,omitempty"`
	Critical bool   `json:"critical,omitempty"`
	Params   Map    `json:"params,omitempty"`
}

// DefaultStateActionType is the type given to entry/exit action names with no declaration.
const DefaultStateActionType = "state_action"

// HasState reports whether name is a declared state.
func (c *Contract) HasState(name string) bool {
	return c.State(name) != nil
}

// State returns the declaration of name, or nil.
func (c *Contract) State(name string) *StateDefinition {
	for i := range c.States {
		if c.States[i].Name == name {
			return &c.States[i]
		}
	}
	return nil
}

// IsTerminal reports whether name is flagged terminal or listed in TerminalStates.
func (c *Contract) IsTerminal(name string) bool {
	if s := c.State(name); s != nil && s.IsTerminal {
		return true
	}
	for _, t := range c.TerminalStates {
		if t == name {
			return true
		}
	}
	return false
}

// IsErrorState reports whether name is listed in ErrorStates.
func (c *Contract) IsErrorState(name string) bool {
	for _, e := range c.ErrorStates {
		if e == name {
			return true
		}
	}
	return false
}

// Transition returns the transition called name, or nil.
func (c *Contract) Transition(name string) *TransitionDefinition {
	for i := range c.Transitions {
		if c.Transitions[i].Name == name {
			return &c.Transitions[i]
		}
	}
	return nil
}

// ResolveActions expands a list of action names against the state's declared actions.
// The result keeps the list order; callers sort by Order when building intents.
func (s *StateDefinition) ResolveActions(names []string) []Action {
	out := make([]Action, 0, len(names))
	for _, name := range names {
		found := false
		for _, a := range s.Actions {
			if a.Name == name {
				out = append(out, a)
				found = true
				break
			}
		}
		if !found {
			out = append(out, Action{Name: name, Type: DefaultStateActionType})
		}
	}
	return out
}
