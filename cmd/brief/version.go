package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/brief"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of brief",
	// The version needs no configuration.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "brief version %s\n", strings.TrimSpace(brief.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
