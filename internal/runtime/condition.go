package runtime

import (
	"strconv"
	"strings"

	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
)

// Operator is a guard expression operator.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpMinLength   Operator = "min_length"
	OpMaxLength   Operator = "max_length"
	OpExists      Operator = "exists"
	OpNotExists   Operator = "not_exists"
)

// Operators lists the supported operators in documentation order.
var Operators = []Operator{
	OpEquals, OpNotEquals, OpGreaterThan, OpLessThan,
	OpMinLength, OpMaxLength, OpExists, OpNotExists,
}

// IsKnownOperator reports whether op is supported by Evaluate.
func IsKnownOperator(op string) bool {
	for _, o := range Operators {
		if string(o) == op {
			return true
		}
	}
	return false
}

// Expression is a parsed "field operator value" guard.
type Expression struct {
	Field    string
	Operator Operator
	Value    string
}

// ParseExpression splits expr on whitespace into exactly three tokens.
func ParseExpression(expr string) (Expression, error) {
	tokens := strings.Fields(expr)
	if len(tokens) != 3 {
		return Expression{}, &domain.EvaluationError{
			Expression: expr,
			Reason:     "expected 3 tokens (field operator value), got " + strconv.Itoa(len(tokens)),
		}
	}
	return Expression{Field: tokens[0], Operator: Operator(tokens[1]), Value: tokens[2]}, nil
}

// Evaluate evaluates a single guard expression against ctx.
//
// It returns a *domain.EvaluationError when the expression cannot be evaluated
// (wrong token count, missing key, unparsable operand) and a *domain.ConfigurationError
// for an unknown operator. Evaluate never mutates ctx and never logs.
func Evaluate(expr string, ctx domain.Map) (bool, error) {
	e, err := ParseExpression(expr)
	if err != nil {
		return false, err
	}

	if !IsKnownOperator(string(e.Operator)) {
		return false, domain.NewConfigurationError(domain.CodeUnknownOperator, domain.ErrUnknownOperator,
			"operator %q in expression %q", e.Operator, expr)
	}

	// exists/not_exists never reach missing-key handling.
	actual, present := ctx[e.Field]
	switch e.Operator {
	case OpExists:
		return present, nil
	case OpNotExists:
		return !present, nil
	}

	if !present {
		return false, evalErr(expr, "field "+strconv.Quote(e.Field)+" not present in context")
	}

	switch e.Operator {
	case OpEquals:
		return stringForm(actual) == e.Value, nil
	case OpNotEquals:
		return stringForm(actual) != e.Value, nil
	case OpGreaterThan, OpLessThan:
		lhs, err := strconv.ParseFloat(stringForm(actual), 64)
		if err != nil {
			return false, evalErr(expr, "field value is not numeric")
		}
		rhs, err := strconv.ParseFloat(e.Value, 64)
		if err != nil {
			return false, evalErr(expr, "expected value is not numeric")
		}
		if e.Operator == OpGreaterThan {
			return lhs > rhs, nil
		}
		return lhs < rhs, nil
	case OpMinLength, OpMaxLength:
		limit, err := strconv.Atoi(e.Value)
		if err != nil {
			return false, evalErr(expr, "expected length is not an integer")
		}
		n, ok := domain.Length(actual)
		if !ok {
			return false, evalErr(expr, "field value of kind "+string(actual.Kind())+" has no length")
		}
		if e.Operator == OpMinLength {
			return n >= limit, nil
		}
		return n <= limit, nil
	}

	return false, evalErr(expr, "unhandled operator")
}

func stringForm(v domain.Value) string {
	if v == nil {
		return domain.Null{}.String()
	}
	return v.String()
}

func evalErr(expr, reason string) *domain.EvaluationError {
	return &domain.EvaluationError{Expression: expr, Reason: reason}
}
