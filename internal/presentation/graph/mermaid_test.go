package graph_test

import (
	"strings"
	"testing"

	"github.com/OmniNode-ai/omnibase-core-sub006/internal/presentation/graph"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/dsl"
	"github.com/stretchr/testify/assert"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		contract *domain.Contract
		overlay  *graph.GraphOverlay
		contains []string
		excludes []string
	}{
		{
			name: "State Shapes",
			contract: dsl.New("shapes").
				ErrorStates("failed").
				State("start").
				State("failed").
				State("done").Terminal().
				Transition("finish").From("start").To("done").On("finish").
				Transition("fail").From("start").To("failed").On("fail").
				MustBuild(),
			contains: []string{
				`start(("start"))`,
				`done(["done"])`,
				`failed{{"failed"}}`,
			},
		},
		{
			name: "ID Sanitization",
			contract: dsl.New("ids").
				State("in-review").
				State("sent.out").Terminal().
				Transition("ship").From("in-review").To("sent.out").On("ship").
				MustBuild(),
			contains: []string{
				`in_review(("in-review"))`,
				`in_review -- "ship" --> sent_out`,
			},
		},
		{
			name: "Guards And Priority",
			contract: dsl.New("guards").
				State("a").
				State("b").Terminal().
				Transition("go").From("a").To("b").On("go").Priority(2).
				When("ok", `flag equals "yes"`).Advise("nice", "n greater_than 1").
				MustBuild(),
			contains: []string{
				`a -- "go #2 [ok, nice?]" --> b`,
			},
		},
		{
			name: "Wildcard Edges Are Dotted",
			contract: dsl.New("wild").
				State("a").
				State("cancelled").Terminal().
				Transition("cancel").Any().To("cancelled").On("cancel").
				MustBuild(),
			contains: []string{
				`any_state["*"]`,
				`any_state -. "cancel" .-> cancelled`,
			},
		},
		{
			name: "Overlay",
			contract: dsl.New("overlay").
				State("a").
				State("b").
				State("c").Terminal().
				Transition("ab").From("a").To("b").On("next").
				Transition("bc").From("b").To("c").On("next").
				MustBuild(),
			overlay: graph.OverlayFromSnapshot(&domain.Snapshot{
				CurrentState: "b",
				History:      []string{"a", "a", "ghost", "b"},
			}),
			contains: []string{
				"class a visited;",
				"class b current;",
			},
			excludes: []string{
				"class ghost",
				"any_state",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.contract, tt.overlay)
			assert.True(t, strings.HasPrefix(got, "graph TD\n"))
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, got, unwanted)
			}
		})
	}
}

func TestGenerateMermaid_VisitedOnce(t *testing.T) {
	c := dsl.New("loop").
		State("a").
		State("z").Terminal().
		Transition("stop").From("a").To("z").On("stop").
		MustBuild()

	got := graph.GenerateMermaid(c, &graph.GraphOverlay{VisitedStates: []string{"a", "a", "a"}})
	assert.Equal(t, 1, strings.Count(got, "class a visited;"))
}
