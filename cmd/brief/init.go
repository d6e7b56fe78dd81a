package main

import (
	"github.com/aretw0/brief/internal/cli"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a workspace with the reference template",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.Dir
		if len(args) > 0 {
			dir = args[0]
		}
		return cli.RunInit(cmd.Context(), dir, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
