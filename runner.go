package omnibase

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
)

// Runner drives a Node from line-oriented input.
// Each line is "<trigger> [key=value ...]"; the pairs become call metadata.
// This allows for easy testing and integration with different frontends (CLI, TUI, etc).
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer OutputRenderer

	// MaxLineSize bounds each input line. Zero means DefaultMaxLineSize.
	MaxLineSize int
}

// OutputRenderer formats the result of one call for display.
type OutputRenderer func(*Output) string

// NewRunner creates a new Runner.
// Input and Output must be set before Run.
func NewRunner() *Runner {
	return &Runner{}
}

// Run reads triggers until EOF, "exit"/"quit", or a terminal state.
// Guard failures are printed and the loop continues. Configuration errors are
// printed too, since the node state is unchanged and the operator may retry.
func (r *Runner) Run(ctx context.Context, node *Node) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	render := r.Renderer
	if render == nil {
		render = PlainRenderer
	}

	lines := bufio.NewReader(r.Input)
	if !r.Headless {
		fmt.Fprintf(r.Output, "--- %s (state: %s) ---\n", node.Contract().Name, node.CurrentState())
	}

	for {
		if node.Contract().IsTerminal(node.CurrentState()) {
			if !r.Headless {
				fmt.Fprintf(r.Output, "Reached terminal state %q.\n", node.CurrentState())
			}
			return nil
		}

		if !r.Headless {
			fmt.Fprint(r.Output, "> ")
		}
		text, err := lines.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("input error: %w", err)
		}
		line, serr := SanitizeLine(strings.TrimSpace(text), r.MaxLineSize)
		if serr != nil {
			fmt.Fprintf(r.Output, "error: %v\n", serr)
			line = ""
		}
		if line == "exit" || line == "quit" {
			fmt.Fprintln(r.Output, "Bye!")
			return nil
		}
		if line != "" {
			in, perr := ParseLine(line)
			if perr != nil {
				fmt.Fprintf(r.Output, "error: %v\n", perr)
			} else {
				out, xerr := node.Process(ctx, in)
				if xerr != nil {
					fmt.Fprintf(r.Output, "error: %v\n", xerr)
				} else {
					fmt.Fprintln(r.Output, strings.TrimRight(render(out), "\n"))
				}
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

// ParseLine parses "<trigger> [key=value ...]" into an Input.
// Values are typed: numbers, true/false and null are recognized, anything else is a string.
func ParseLine(line string) (Input, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Input{}, fmt.Errorf("empty line")
	}
	meta := domain.Map{domain.KeyTrigger: domain.String(fields[0])}
	for _, f := range fields[1:] {
		key, raw, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return Input{}, fmt.Errorf("expected key=value, got %q", f)
		}
		meta[key] = scalar(raw)
	}
	return Input{Metadata: meta}, nil
}

func scalar(raw string) domain.Value {
	switch raw {
	case "null":
		return domain.Null{}
	case "true":
		return domain.Bool(true)
	case "false":
		return domain.Bool(false)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return domain.Number(f)
	}
	return domain.String(raw)
}

// PlainRenderer prints the outcome and the intent list.
func PlainRenderer(out *Output) string {
	var b strings.Builder
	t := out.Transition
	if t.Success {
		fmt.Fprintf(&b, "%s -> %s via %s\n", t.OldState, t.NewState, t.TransitionName)
	} else {
		fmt.Fprintf(&b, "blocked in %s (%s): %s\n", t.OldState, t.FailureClass, t.ErrorMessage)
	}
	for _, intent := range out.Intents {
		fmt.Fprintf(&b, "  %s %s %s\n", intent.ID, intent.Type, intent.Target)
	}
	return b.String()
}
