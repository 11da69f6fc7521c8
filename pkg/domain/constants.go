package domain

const (
	// Wildcard is the from_state sentinel matching any state without an exact transition.
	Wildcard = "*"

	// KeyData is the reserved context key holding the raw input payload.
	KeyData = "data"

	// KeyOperationID is the reserved context key holding the operation identifier.
	KeyOperationID = "operation_id"

	// KeyTrigger is the metadata key selecting the trigger.
	KeyTrigger = "trigger"

	// DefaultTrigger is used when the metadata carries no trigger.
	DefaultTrigger = "process"
)
