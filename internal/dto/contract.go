package dto

// ContractDocument is the wire shape of a contract document (YAML or JSON).
// It uses "mapstructure" tags so that YAML and JSON decode through the same path.
type ContractDocument struct {
	Name         string `mapstructure:"name"`
	Version      string `mapstructure:"version"`
	Description  string `mapstructure:"description"`
	InitialState string `mapstructure:"initial_state"`

	States         []StateDocument      `mapstructure:"states"`
	Transitions    []TransitionDocument `mapstructure:"transitions"`
	TerminalStates []string             `mapstructure:"terminal_states"`
	ErrorStates    []string             `mapstructure:"error_states"`

	PersistenceEnabled bool `mapstructure:"persistence_enabled"`
	StrictValidation   bool `mapstructure:"strict_validation"`
	RecoveryEnabled    bool `mapstructure:"recovery_enabled"`
	RollbackEnabled    bool `mapstructure:"rollback_enabled"`

	// Reserved sections. They must be mappings when present.
	Parallel     any `mapstructure:"parallel"`
	Hierarchical any `mapstructure:"hierarchical"`
	Retry        any `mapstructure:"retry"`
	Rollback     any `mapstructure:"rollback"`
	Recovery     any `mapstructure:"recovery"`
}

type StateDocument struct {
	Name         string           `mapstructure:"name"`
	StateName    string           `mapstructure:"state_name"`
	Type         string           `mapstructure:"type"`
	IsTerminal   bool             `mapstructure:"is_terminal"`
	EntryActions []string         `mapstructure:"entry_actions"`
	ExitActions  []string         `mapstructure:"exit_actions"`
	Actions      []ActionDocument `mapstructure:"actions"`
}

type TransitionDocument struct {
	Name           string              `mapstructure:"name"`
	TransitionName string              `mapstructure:"transition_name"`
	FromState      string              `mapstructure:"from_state"`
	ToState        string              `mapstructure:"to_state"`
	Trigger        string              `mapstructure:"trigger"`
	Priority       int                 `mapstructure:"priority"`
	Conditions     []ConditionDocument `mapstructure:"conditions"`
	Actions        []ActionDocument    `mapstructure:"actions"`
}

type ConditionDocument struct {
	Name          string `mapstructure:"name"`
	ConditionName string `mapstructure:"condition_name"`
	Expression    string `mapstructure:"expression"`
	Required      *bool  `mapstructure:"required"`
	ErrorMessage  string `mapstructure:"error_message"`
}

type ActionDocument struct {
	Name       string         `mapstructure:"name"`
	ActionName string         `mapstructure:"action_name"`
	Type       string         `mapstructure:"type"`
	Order      int            `mapstructure:"order"`
	Critical   bool           `mapstructure:"critical"`
	Params     map[string]any `mapstructure:"params"`
}
