package main

import (
	"fmt"

	omnibase "github.com/OmniNode-ai/omnibase-core-sub006"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of omnibase",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "omnibase version %s\n", omnibase.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
