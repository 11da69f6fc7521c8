package main

import (
	"context"

	"github.com/OmniNode-ai/omnibase-core-sub006/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Drive a contract interactively",
	Long: `Starts a single in-memory entity at the contract's initial state and reads triggers from stdin.
Each line is "<trigger> [key=value ...]"; the pairs are visible to guards for that call.
Type "exit" or "quit" to stop.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		headless, _ := cmd.Flags().GetBool("headless")
		shallow, _ := cmd.Flags().GetBool("shallow")
		debug, _ := cmd.Flags().GetBool("debug")

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		return cli.Run(ctx, cli.RunOptions{
			Path:     args[0],
			Headless: headless,
			Debug:    debug,
			Shallow:  shallow,
		}, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("headless", false, "Run in headless mode (no prompts, plain output)")
	runCmd.Flags().Bool("shallow", false, "Shallow-copy call metadata instead of deep copying it")
}
