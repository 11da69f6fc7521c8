package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
)

// Error codes reported by the default rules.
const (
	CodeNoStates             = "NO_STATES"
	CodeNoTransitions        = "NO_TRANSITIONS"
	CodeEmptyStateName       = "EMPTY_STATE_NAME"
	CodeDuplicateState       = "DUPLICATE_STATE"
	CodeReservedStateName    = "RESERVED_STATE_NAME"
	CodeMissingInitialState  = "MISSING_INITIAL_STATE"
	CodeUnknownInitialState  = "UNKNOWN_INITIAL_STATE"
	CodeUnknownTerminalState = "UNKNOWN_TERMINAL_STATE"
	CodeUnknownErrorState    = "UNKNOWN_ERROR_STATE"
	CodeEmptyTransitionName  = "EMPTY_TRANSITION_NAME"
	CodeDuplicateTransition  = "DUPLICATE_TRANSITION_NAME"
	CodeUnknownTargetState   = "UNKNOWN_TARGET_STATE"
	CodeWildcardTarget       = "WILDCARD_TARGET"
	CodeUnknownSourceState   = "UNKNOWN_SOURCE_STATE"
	CodeEmptyTrigger         = "EMPTY_TRIGGER"
	CodeDuplicateTriple      = "DUPLICATE_FROM_TRIGGER_PRIORITY"
	CodeTransitionFromFinal  = "TRANSITION_FROM_TERMINAL_STATE"

	CodeUnreachableState   = "UNREACHABLE_STATE"
	CodeMalformedGuard     = "MALFORMED_GUARD"
	CodeUnknownOperator    = "UNKNOWN_OPERATOR"
	CodeIgnoredExitActions = "TERMINAL_EXIT_ACTIONS"
)

// Location identifies where an issue occurred.
type Location struct {
	State      string
	Transition string
	Index      int // position in the declaring list, -1 if not applicable
}

func (l Location) String() string {
	switch {
	case l.Transition != "":
		return fmt.Sprintf("transition %q (#%d)", l.Transition, l.Index)
	case l.State != "":
		return fmt.Sprintf("state %q", l.State)
	case l.Index >= 0:
		return fmt.Sprintf("#%d", l.Index)
	}
	return "contract"
}

// ValidationError is a structural violation that rejects the contract.
type ValidationError struct {
	Code     string
	Message  string
	Location Location
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s at %s: %s", e.Code, e.Location, e.Message)
}

// ValidationWarning is an advisory finding. It never rejects a contract
// unless the contract enables strict validation.
type ValidationWarning struct {
	Code     string
	Message  string
	Location Location
}

// Result contains the outcome of validating a contract.
type Result struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// Err returns nil for a valid result, otherwise an error wrapping
// domain.ErrInvalidContract and every validation error.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	errs := make([]error, 0, len(r.Errors))
	for _, e := range r.Errors {
		errs = append(errs, e)
	}
	return fmt.Errorf("%w: %w", domain.ErrInvalidContract, errors.Join(errs...))
}

// Summary renders the errors one per line.
func (r Result) Summary() string {
	lines := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		lines = append(lines, e.Error())
	}
	return strings.Join(lines, "\n")
}

// Validate checks the contract against the default rules.
// When the contract enables strict validation, warnings are promoted to errors.
// Validation is pure and deterministic.
func Validate(c *domain.Contract) Result {
	if c != nil && c.Flags.StrictValidation {
		return ValidateWithRulesStrict(c, DefaultRules())
	}
	return ValidateWithRules(c, DefaultRules())
}

// ValidateWithRules validates using custom rules.
func ValidateWithRules(c *domain.Contract, rules []Rule) Result {
	result := Result{Valid: true}
	if c == nil {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Code: CodeNoStates, Message: "contract is nil", Location: Location{Index: -1},
		})
		return result
	}

	for _, rule := range rules {
		rr := rule.Check(c)
		result.Errors = append(result.Errors, rr.Errors...)
		result.Warnings = append(result.Warnings, rr.Warnings...)
	}

	if len(result.Errors) > 0 {
		result.Valid = false
	}
	return result
}

// ValidateWithRulesStrict validates with warnings treated as errors.
func ValidateWithRulesStrict(c *domain.Contract, rules []Rule) Result {
	result := ValidateWithRules(c, rules)

	for _, w := range result.Warnings {
		result.Errors = append(result.Errors, ValidationError(w))
	}
	result.Warnings = nil

	if len(result.Errors) > 0 {
		result.Valid = false
	}
	return result
}
