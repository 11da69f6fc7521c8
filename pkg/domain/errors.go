package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a ConfigurationError.
type ErrorCode string

const (
	CodeValidation           ErrorCode = "VALIDATION_ERROR"
	CodeTerminalState        ErrorCode = "TERMINAL_STATE"
	CodeNoMatchingTransition ErrorCode = "NO_MATCHING_TRANSITION"
	CodeUnknownOperator      ErrorCode = "UNKNOWN_OPERATOR"
	CodeCriticalAction       ErrorCode = "CRITICAL_ACTION_FAILED"
	CodeStateDivergence      ErrorCode = "STATE_DIVERGENCE"
)

var (
	// ErrInvalidContract is returned when a contract fails validation.
	ErrInvalidContract = errors.New("invalid contract")

	// ErrStateNotDeclared is returned when a snapshot points at a state the contract does not declare.
	ErrStateNotDeclared = errors.New("state not declared")

	// ErrTerminalState is returned when a transition is attempted from a terminal state.
	ErrTerminalState = errors.New("state is terminal")

	// ErrNoMatchingTransition is returned when no transition matches the state and trigger.
	ErrNoMatchingTransition = errors.New("no matching transition")

	// ErrUnknownOperator is returned when a guard uses an operator the evaluator does not support.
	ErrUnknownOperator = errors.New("unknown operator")

	// ErrCriticalAction is returned when an intent cannot be built for a critical action.
	ErrCriticalAction = errors.New("critical action failed")

	// ErrStateDivergence is returned when the facade state no longer matches the snapshot it would execute.
	ErrStateDivergence = errors.New("state divergence")

	// ErrEntityNotFound is returned when an entity ID cannot be found in the store.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrContractNotFound is returned when a loader has no contract with the requested name.
	ErrContractNotFound = errors.New("contract not found")
)

// ConfigurationError signals a contract or programming bug.
// It is raised (returned as error), never folded into a TransitionResult,
// and callers must propagate it unmodified.
type ConfigurationError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NewConfigurationError builds a ConfigurationError wrapping the sentinel err.
func NewConfigurationError(code ErrorCode, err error, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// IsConfigurationError reports whether err is (or wraps) a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// EvaluationError reports that a guard expression could not be evaluated.
// It is data, not a configuration error: the executor classifies it.
type EvaluationError struct {
	Expression string
	Reason     string
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("cannot evaluate %q: %s", e.Expression, e.Reason)
}
