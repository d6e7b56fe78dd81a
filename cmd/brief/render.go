package main

import (
	"github.com/aretw0/brief/internal/cli"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the feedback template once",
	Long: `Renders the stored template (or --template) with the property defaults,
overridden by --values and --set, and prints the result.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := valuesFromFlags(cmd)
		if err != nil {
			return err
		}
		tmpl, _ := cmd.Flags().GetString("template")
		format, _ := cmd.Flags().GetString("format")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		return cli.RunRender(ctx, cli.RenderOptions{
			Config:       cfg,
			Debug:        debugEnabled(cmd),
			Values:       values,
			TemplatePath: tmpl,
			Format:       format,
			Out:          cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)

	addValueFlags(renderCmd)
	renderCmd.Flags().StringP("template", "t", "", "Render this file instead of the stored template")
	renderCmd.Flags().StringP("format", "f", cli.FormatMarkdown, "Output format: markdown, html or json")
}

// addValueFlags registers the property override flags shared by several commands.
func addValueFlags(cmd *cobra.Command) {
	cmd.Flags().StringArray("set", nil, "Override a property (key=value), repeatable")
	cmd.Flags().String("values", "", "Property overrides as a JSON object")
}

func valuesFromFlags(cmd *cobra.Command) (map[string]any, error) {
	pairs, _ := cmd.Flags().GetStringArray("set")
	raw, _ := cmd.Flags().GetString("values")
	return cli.ParseValues(raw, pairs)
}
