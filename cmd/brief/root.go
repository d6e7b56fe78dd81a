package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/brief/internal/config"
	"github.com/spf13/cobra"
)

// cfg is resolved once per invocation by the root pre-run hook.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "brief",
	Short: "Brief previews adaptive feedback templates",
	Long: `Brief renders Handlebars-style Markdown templates against a set of feedback
properties and highlights the text that appears when a property changes.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Directory containing the feedback workspace")
	rootCmd.PersistentFlags().String("config", "", "Configuration file (default <dir>/"+config.FileName+")")
	rootCmd.PersistentFlags().String("store", "", "Template store: workspace, file, memory, redis or sqlite")
	rootCmd.PersistentFlags().String("store-url", "", "Connection URL of the redis store")
	rootCmd.PersistentFlags().String("properties", "", "Property schema file used by non-workspace stores")
	rootCmd.PersistentFlags().Bool("strict", false, "Fail on references to undeclared properties")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	dir, _ := flags.GetString("dir")
	path, _ := flags.GetString("config")
	if path == "" {
		path = filepath.Join(dir, config.FileName)
	}

	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	if flags.Changed("dir") || loaded.Dir == "" || loaded.Dir == "." {
		loaded.Dir = dir
	}
	if v, _ := flags.GetString("store"); v != "" {
		loaded.Store.Kind = v
	}
	if v, _ := flags.GetString("store-url"); v != "" {
		loaded.Store.URL = v
	}
	if v, _ := flags.GetString("properties"); v != "" {
		loaded.Properties = v
	}
	if flags.Changed("strict") {
		loaded.Strict, _ = flags.GetBool("strict")
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded
	return nil
}

func debugEnabled(cmd *cobra.Command) bool {
	debug, _ := cmd.Flags().GetBool("debug")
	return debug
}
