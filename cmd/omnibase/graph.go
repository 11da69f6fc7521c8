package main

import (
	"github.com/OmniNode-ai/omnibase-core-sub006/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <file>",
	Short: "Export the contract as a Mermaid diagram",
	Long:  `Parses a contract and prints a Mermaid flowchart (graph TD) of its states and transitions.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Graph(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
