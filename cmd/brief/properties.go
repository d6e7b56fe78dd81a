package main

import (
	"github.com/aretw0/brief/internal/cli"
	"github.com/spf13/cobra"
)

var propertiesCmd = &cobra.Command{
	Use:   "properties",
	Short: "List the feedback properties",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		if asGraph, _ := cmd.Flags().GetBool("graph"); asGraph {
			values, err := valuesFromFlags(cmd)
			if err != nil {
				return err
			}
			return cli.RunGraph(cmd.Context(), cfg, cmd.OutOrStdout(), values)
		}
		return cli.RunProperties(cmd.Context(), cfg, cmd.OutOrStdout(), asJSON)
	},
}

func init() {
	rootCmd.AddCommand(propertiesCmd)
	propertiesCmd.Flags().Bool("json", false, "Print the definitions as JSON")
	propertiesCmd.Flags().Bool("graph", false, "Print the dependency graph as a Mermaid flowchart")
	addValueFlags(propertiesCmd)
}
