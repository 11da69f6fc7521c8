package validator

import (
	"fmt"

	"github.com/OmniNode-ai/omnibase-core-sub006/internal/runtime"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
)

// RuleResult contains both errors and warnings from a rule check.
type RuleResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

func (r *RuleResult) fail(code string, loc Location, format string, args ...any) {
	r.Errors = append(r.Errors, ValidationError{Code: code, Message: fmt.Sprintf(format, args...), Location: loc})
}

func (r *RuleResult) warn(code string, loc Location, format string, args ...any) {
	r.Warnings = append(r.Warnings, ValidationWarning{Code: code, Message: fmt.Sprintf(format, args...), Location: loc})
}

// Rule checks a contract for one class of issues.
type Rule interface {
	Name() string
	Check(c *domain.Contract) RuleResult
}

// DefaultRules returns the standard rule set.
func DefaultRules() []Rule {
	return []Rule{
		&stateRule{},
		&initialStateRule{},
		&stateSetRule{},
		&transitionRule{},
		&reachabilityRule{},
		&guardSyntaxRule{},
	}
}

func noLocation() Location { return Location{Index: -1} }

// stateRule checks that states exist and are uniquely named.
type stateRule struct{}

func (r *stateRule) Name() string { return "States" }

func (r *stateRule) Check(c *domain.Contract) RuleResult {
	var res RuleResult
	if len(c.States) == 0 {
		res.fail(CodeNoStates, noLocation(), "contract declares no states")
	}
	if len(c.Transitions) == 0 {
		res.fail(CodeNoTransitions, noLocation(), "contract declares no transitions")
	}

	seen := make(map[string]bool, len(c.States))
	for i, s := range c.States {
		loc := Location{State: s.Name, Index: i}
		switch {
		case s.Name == "":
			res.fail(CodeEmptyStateName, Location{Index: i}, "state name is empty")
		case s.Name == domain.Wildcard:
			res.fail(CodeReservedStateName, loc, "%q is reserved for wildcard transitions", domain.Wildcard)
		case seen[s.Name]:
			res.fail(CodeDuplicateState, loc, "state %q declared more than once", s.Name)
		}
		seen[s.Name] = true

		if c.IsTerminal(s.Name) && len(s.ExitActions) > 0 {
			res.warn(CodeIgnoredExitActions, loc, "terminal state %q declares exit actions that can never run", s.Name)
		}
	}
	return res
}

// initialStateRule checks the initial state.
type initialStateRule struct{}

func (r *initialStateRule) Name() string { return "InitialState" }

func (r *initialStateRule) Check(c *domain.Contract) RuleResult {
	var res RuleResult
	switch {
	case c.InitialState == "":
		res.fail(CodeMissingInitialState, noLocation(), "initial_state is empty")
	case !c.HasState(c.InitialState):
		res.fail(CodeUnknownInitialState, Location{State: c.InitialState, Index: -1},
			"initial_state %q is not a declared state", c.InitialState)
	}
	return res
}

// stateSetRule checks terminal and error state sets.
type stateSetRule struct{}

func (r *stateSetRule) Name() string { return "StateSets" }

func (r *stateSetRule) Check(c *domain.Contract) RuleResult {
	var res RuleResult
	for i, name := range c.TerminalStates {
		if !c.HasState(name) {
			res.fail(CodeUnknownTerminalState, Location{State: name, Index: i}, "terminal state %q is not declared", name)
		}
	}
	for i, name := range c.ErrorStates {
		if !c.HasState(name) {
			res.fail(CodeUnknownErrorState, Location{State: name, Index: i}, "error state %q is not declared", name)
		}
	}
	return res
}

// transitionRule checks every transition definition.
type transitionRule struct{}

func (r *transitionRule) Name() string { return "Transitions" }

type triple struct {
	from, trigger string
	priority      int
}

func (r *transitionRule) Check(c *domain.Contract) RuleResult {
	var res RuleResult
	names := make(map[string]int, len(c.Transitions))
	triples := make(map[triple]string, len(c.Transitions))

	for i, t := range c.Transitions {
		loc := Location{Transition: t.Name, Index: i}

		if t.Name == "" {
			res.fail(CodeEmptyTransitionName, loc, "transition_name is empty")
		} else if first, dup := names[t.Name]; dup {
			res.fail(CodeDuplicateTransition, loc, "transition_name %q already used by #%d", t.Name, first)
		} else {
			names[t.Name] = i
		}

		switch {
		case t.ToState == domain.Wildcard:
			res.fail(CodeWildcardTarget, loc, "to_state may not be the wildcard")
		case !c.HasState(t.ToState):
			res.fail(CodeUnknownTargetState, loc, "to_state %q is not declared", t.ToState)
		}

		if t.FromState != domain.Wildcard && !c.HasState(t.FromState) {
			res.fail(CodeUnknownSourceState, loc, "from_state %q is neither declared nor %q", t.FromState, domain.Wildcard)
		}
		if t.FromState != domain.Wildcard && c.HasState(t.FromState) && c.IsTerminal(t.FromState) {
			res.fail(CodeTransitionFromFinal, loc, "from_state %q is terminal", t.FromState)
		}

		if t.Trigger == "" {
			res.fail(CodeEmptyTrigger, loc, "trigger is empty")
		}

		key := triple{from: t.FromState, trigger: t.Trigger, priority: t.Priority}
		if other, dup := triples[key]; dup {
			res.fail(CodeDuplicateTriple, loc,
				"(from_state=%q, trigger=%q, priority=%d) already used by %q", t.FromState, t.Trigger, t.Priority, other)
		} else {
			triples[key] = t.Name
		}
	}
	return res
}

// reachabilityRule warns about states that no transition path reaches from the initial state.
type reachabilityRule struct{}

func (r *reachabilityRule) Name() string { return "Reachability" }

func (r *reachabilityRule) Check(c *domain.Contract) RuleResult {
	var res RuleResult
	if !c.HasState(c.InitialState) {
		return res
	}

	visited := map[string]bool{c.InitialState: true}
	queue := []string{c.InitialState}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if c.IsTerminal(current) {
			continue
		}
		for _, t := range c.Transitions {
			if t.FromState != current && t.FromState != domain.Wildcard {
				continue
			}
			if c.HasState(t.ToState) && !visited[t.ToState] {
				visited[t.ToState] = true
				queue = append(queue, t.ToState)
			}
		}
	}

	for i, s := range c.States {
		if s.Name != "" && !visited[s.Name] {
			res.warn(CodeUnreachableState, Location{State: s.Name, Index: i},
				"state %q is unreachable from %q", s.Name, c.InitialState)
		}
	}
	return res
}

// guardSyntaxRule warns about guard expressions that will fail at evaluation time.
type guardSyntaxRule struct{}

func (r *guardSyntaxRule) Name() string { return "GuardSyntax" }

func (r *guardSyntaxRule) Check(c *domain.Contract) RuleResult {
	var res RuleResult
	for i, t := range c.Transitions {
		loc := Location{Transition: t.Name, Index: i}
		for _, g := range t.Conditions {
			expr, err := runtime.ParseExpression(g.Expression)
			if err != nil {
				res.warn(CodeMalformedGuard, loc, "condition %q: %v", g.Name, err)
				continue
			}
			if !runtime.IsKnownOperator(string(expr.Operator)) {
				res.warn(CodeUnknownOperator, loc, "condition %q uses unknown operator %q", g.Name, expr.Operator)
			}
		}
	}
	return res
}
