package domain

// IntentType tags the kind of side effect an intent declares.
type IntentType string

const (
	IntentPersistState            IntentType = "persist_state"
	IntentExitAction              IntentType = "exit_action"
	IntentTransitionAction        IntentType = "transition_action"
	IntentEntryAction             IntentType = "entry_action"
	IntentActionFailure           IntentType = "action_failure"
	IntentContextCollisionWarning IntentType = "context_collision_warning"
)

// Payload keys. Required keys of persist_state and <phase>_action are stable
// and must never be renamed or removed.
const (
	PayloadFSMName           = "fsm_name"
	PayloadPreviousState     = "previous_state"
	PayloadState             = "state"
	PayloadOperationID       = "operation_id"
	PayloadTimestamp         = "timestamp"
	PayloadContext           = "context"
	PayloadCorrelationID     = "correlation_id"
	PayloadEntityID          = "entity_id"
	PayloadStateOrTransition = "state_or_transition_name"
	PayloadActionName        = "action_name"
	PayloadActionType        = "action_type"
	PayloadActionParams      = "params"
	PayloadFromState         = "from_state"
	PayloadToState           = "to_state"
	PayloadError             = "error"
	PayloadCollidingKeys     = "keys"
	PayloadFailedIntentType  = "failed_intent_type"
	PayloadActionOrder       = "order"
)

// Intent declares a side effect for an external effect executor.
// Intents are data only; the engine never executes them.
type Intent struct {
	ID       string     `json:"id"`
	Type     IntentType `json:"intent_type"`
	Target   string     `json:"target"`
	Payload  Map        `json:"payload"`
	Priority int        `json:"priority"`

	// LeaseID and Epoch correlate the intent with an external single-writer lease.
	LeaseID string `json:"lease_id,omitempty"`
	Epoch   int64  `json:"epoch,omitempty"`
}
