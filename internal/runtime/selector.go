package runtime

import "github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"

// SelectionOutcome reports which specificity tier produced the selected transition.
type SelectionOutcome int

const (
	NoMatch SelectionOutcome = iota
	ExactMatch
	WildcardMatch
)

func (o SelectionOutcome) String() string {
	switch o {
	case ExactMatch:
		return "exact"
	case WildcardMatch:
		return "wildcard"
	}
	return "no_match"
}

// Select resolves the transition for (current, trigger).
//
// Triggers match exactly. Exact from_state matches always beat wildcard matches;
// within a tier the highest priority wins and ties go to the first declared.
// The two tiers are never merged into a single priority ordering.
func Select(transitions []domain.TransitionDefinition, current, trigger string) (*domain.TransitionDefinition, SelectionOutcome) {
	var exact, wildcard *domain.TransitionDefinition

	for i := range transitions {
		t := &transitions[i]
		if t.Trigger != trigger {
			continue
		}
		switch t.FromState {
		case current:
			if exact == nil || t.Priority > exact.Priority {
				exact = t
			}
		case domain.Wildcard:
			if wildcard == nil || t.Priority > wildcard.Priority {
				wildcard = t
			}
		}
	}

	if exact != nil {
		return exact, ExactMatch
	}
	if wildcard != nil {
		return wildcard, WildcardMatch
	}
	return nil, NoMatch
}
