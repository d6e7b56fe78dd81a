package main

import (
	"github.com/aretw0/brief/internal/cli"
	"github.com/spf13/cobra"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Read or replace the stored template",
}

var templateGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the stored template source",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.RunTemplateGet(cmd.Context(), cfg, cmd.OutOrStdout())
	},
}

var templateSetCmd = &cobra.Command{
	Use:   "set <file|->",
	Short: "Store the template read from a file or stdin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.RunTemplateSet(cmd.Context(), cfg, args[0], cmd.InOrStdin())
	},
}

func init() {
	templateCmd.AddCommand(templateGetCmd, templateSetCmd)
	rootCmd.AddCommand(templateCmd)
}
