package cli

import (
	"context"
	"fmt"
	"io"

	omnibase "github.com/OmniNode-ai/omnibase-core-sub006"
	"github.com/OmniNode-ai/omnibase-core-sub006/internal/presentation/tui"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/observability"
)

// RunOptions configures an interactive run of one contract.
type RunOptions struct {
	Path     string
	Headless bool
	Debug    bool
	Shallow  bool
}

// Run loads the contract at opts.Path and drives it from in until EOF, exit or a terminal state.
func Run(ctx context.Context, opts RunOptions, in io.Reader, out io.Writer) error {
	logger := NewLogger(opts.Debug)

	nodeOpts := []omnibase.Option{omnibase.WithLogger(logger)}
	if opts.Debug {
		nodeOpts = append(nodeOpts, omnibase.WithLifecycleHooks(observability.LoggingHooks(logger)))
	}
	if opts.Shallow {
		nodeOpts = append(nodeOpts, omnibase.WithShallowCopy())
	}

	node, err := omnibase.Load(opts.Path, nodeOpts...)
	if err != nil {
		return fmt.Errorf("error loading contract: %w", err)
	}

	r := omnibase.NewRunner()
	r.Input = in
	r.Output = out
	r.Headless = opts.Headless
	if opts.Headless {
		r.Renderer = omnibase.PlainRenderer
	} else {
		tui.PrintBanner(out)
		r.Renderer = tui.NewRenderer(out)
	}

	err = r.Run(ctx, node)
	if isInterrupted(err) {
		err = nil
	}
	if !opts.Headless {
		printSystemMessage(out, "Finished at '%s' state.", node.CurrentState())
	}
	return err
}
