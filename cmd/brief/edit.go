package main

import (
	"github.com/aretw0/brief/internal/cli"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Interactively toggle properties and preview the feedback",
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := valuesFromFlags(cmd)
		if err != nil {
			return err
		}
		quiet, _ := cmd.Flags().GetBool("quiet")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		return cli.RunEdit(ctx, cli.EditOptions{
			Config: cfg,
			Debug:  debugEnabled(cmd),
			Values: values,
			Out:    cmd.OutOrStdout(),
			Quiet:  quiet,
		})
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-render the feedback whenever the template changes",
	Long: `Runs in development mode: the stored template is rendered again on every
change and the text that appeared is announced. Schema and partial changes need a restart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := valuesFromFlags(cmd)
		if err != nil {
			return err
		}
		quiet, _ := cmd.Flags().GetBool("quiet")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		return cli.RunWatch(ctx, cli.WatchOptions{
			Config: cfg,
			Debug:  debugEnabled(cmd),
			Values: values,
			Out:    cmd.OutOrStdout(),
			Quiet:  quiet,
		})
	},
}

func init() {
	rootCmd.AddCommand(editCmd, watchCmd)

	for _, cmd := range []*cobra.Command{editCmd, watchCmd} {
		addValueFlags(cmd)
		cmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
	}
}
