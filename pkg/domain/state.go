package domain

// Snapshot is the input and output unit of the executor.
// A Snapshot is treated as immutable: every transition produces a new instance.
type Snapshot struct {
	// CurrentState is the name of the active state.
	CurrentState string `json:"current_state"`

	// Context is the read-only execution context.
	Context Map `json:"context"`

	// History is debug-only. Its ordering, length and presence carry no guarantees
	// and it is excluded from equality and fingerprints.
	History []string `json:"history,omitempty"`
}

// NewSnapshot creates a snapshot positioned at state with an empty context.
func NewSnapshot(state string) *Snapshot {
	return &Snapshot{
		CurrentState: state,
		Context:      Map{},
	}
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := &Snapshot{
		CurrentState: s.CurrentState,
		Context:      s.Context.Clone(),
	}
	if s.History != nil {
		out.History = append([]string(nil), s.History...)
	}
	return out
}
