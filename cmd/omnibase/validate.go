package main

import (
	"github.com/OmniNode-ai/omnibase-core-sub006/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a contract for structural errors",
	Long: `Parses a YAML or JSON contract and reports every validation error and warning.
The command exits non-zero when the contract is rejected. Warnings never reject.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		return cli.Validate(cmd.OutOrStdout(), args[0], format)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("format", cli.FormatText, "Output format: text or json")
}
