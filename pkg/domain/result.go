package domain

// Failure classifications for business-constraint failures.
const (
	FailureConditionsNotMet         = "conditions_not_met"
	FailureConditionEvaluationError = "condition_evaluation_error"
)

// TransitionResult is the outcome of one executor call.
// Business-constraint failures are reported here with Success=false.
type TransitionResult struct {
	Success  bool   `json:"success"`
	NewState string `json:"new_state"`
	OldState string `json:"old_state"`

	// TransitionName is set whenever a transition was selected, including on guard failure.
	TransitionName string `json:"transition_name,omitempty"`

	Intents []Intent `json:"intents"`

	FailureClass string `json:"failure_class,omitempty"`

	// FailedConditions lists failing required guards for FailureConditionsNotMet.
	// It is nil for FailureConditionEvaluationError.
	FailedConditions []string `json:"failed_conditions"`

	ErrorMessage string `json:"error_message,omitempty"`
}
