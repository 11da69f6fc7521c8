package tui

import (
	"fmt"
	"io"
	"strings"

	omnibase "github.com/OmniNode-ai/omnibase-core-sub006"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
	"github.com/muesli/termenv"
)

// Palette used for transition output.
const (
	colorSuccess = "#22c55e"
	colorBlocked = "#f59e0b"
	colorWarning = "#ef4444"
	colorMuted   = "#94a3b8"
)

// NewRenderer returns an omnibase.OutputRenderer that styles results for w.
// Colors are dropped when w is not a terminal.
func NewRenderer(w io.Writer) omnibase.OutputRenderer {
	out := termenv.NewOutput(w)
	return func(o *omnibase.Output) string {
		return render(out, o)
	}
}

func render(out *termenv.Output, o *omnibase.Output) string {
	var b strings.Builder
	t := o.Transition
	if t.Success {
		arrow := out.String(fmt.Sprintf("%s -> %s", t.OldState, t.NewState)).Foreground(out.Color(colorSuccess)).Bold()
		fmt.Fprintf(&b, "%s via %s\n", arrow, t.TransitionName)
	} else {
		label := out.String("blocked").Foreground(out.Color(colorBlocked)).Bold()
		fmt.Fprintf(&b, "%s in %s (%s)", label, t.OldState, t.FailureClass)
		if len(t.FailedConditions) > 0 {
			fmt.Fprintf(&b, ": %s", strings.Join(t.FailedConditions, ", "))
		}
		if t.ErrorMessage != "" {
			fmt.Fprintf(&b, " %s", out.String(t.ErrorMessage).Faint())
		}
		b.WriteString("\n")
	}

	for _, intent := range o.Intents {
		id := out.String(intent.ID).Foreground(out.Color(colorMuted))
		kind := out.String(string(intent.Type))
		switch intent.Type {
		case domain.IntentActionFailure, domain.IntentContextCollisionWarning:
			kind = kind.Foreground(out.Color(colorWarning))
		}
		fmt.Fprintf(&b, "  %s %s %s\n", id, kind, intent.Target)
	}
	return b.String()
}
