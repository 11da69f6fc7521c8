package graph

import (
	"fmt"
	"strings"

	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
)

// wildcardID is the node that wildcard transitions leave from.
const wildcardID = "any_state"

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	VisitedStates []string
	CurrentState  string
}

// OverlayFromSnapshot builds an overlay from an entity snapshot.
func OverlayFromSnapshot(snap *domain.Snapshot) *GraphOverlay {
	if snap == nil {
		return nil
	}
	return &GraphOverlay{VisitedStates: snap.History, CurrentState: snap.CurrentState}
}

// GenerateMermaid produces a Mermaid flowchart for a contract.
// It applies semantic styling:
// - Initial: ((Circle))
// - Terminal: ([Stadium])
// - Error: {{Hexagon}}
// - Default: [Rectangle]
// Wildcard transitions are drawn dotted from a single "*" node.
// Overlay styles (Visited/Current) are applied if provided.
func GenerateMermaid(c *domain.Contract, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, state := range c.States {
		safeID := sanitizeMermaidID(state.Name)

		opener, closer := "[", "]"
		switch {
		case state.Name == c.InitialState:
			opener, closer = "((", "))"
		case c.IsTerminal(state.Name):
			opener, closer = "([", "])"
		case c.IsErrorState(state.Name):
			opener, closer = "{{", "}}"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, state.Name, closer)
	}

	hasWildcard := false
	for _, t := range c.Transitions {
		if t.FromState == domain.Wildcard {
			hasWildcard = true
			break
		}
	}
	if hasWildcard {
		fmt.Fprintf(&sb, "    %s[\"*\"]\n", wildcardID)
	}

	for _, t := range c.Transitions {
		label := strings.ReplaceAll(edgeLabel(t), "\"", "'")
		to := sanitizeMermaidID(t.ToState)
		if t.FromState == domain.Wildcard {
			fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s\n", wildcardID, label, to)
			continue
		}
		fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", sanitizeMermaidID(t.FromState), label, to)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visited := make(map[string]bool)
		for _, name := range overlay.VisitedStates {
			if !c.HasState(name) {
				continue
			}
			safeID := sanitizeMermaidID(name)
			if !visited[safeID] {
				visited[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentState != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentState))
		}
	}

	return sb.String()
}

// edgeLabel renders "trigger" or "trigger [guard, guard?]"; optional guards carry a "?".
func edgeLabel(t domain.TransitionDefinition) string {
	label := t.Trigger
	if t.Priority != 0 {
		label = fmt.Sprintf("%s #%d", label, t.Priority)
	}
	if len(t.Conditions) == 0 {
		return label
	}
	guards := make([]string, 0, len(t.Conditions))
	for _, cond := range t.Conditions {
		name := cond.Name
		if !cond.IsRequired() {
			name += "?"
		}
		guards = append(guards, name)
	}
	return fmt.Sprintf("%s [%s]", label, strings.Join(guards, ", "))
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
