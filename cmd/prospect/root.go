package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"prospect/internal/config"
	"prospect/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "prospect",
	Short: "Evidence-based investment analysis for startup candidates",
	Long: "Prospect discovers candidate companies for an investment thesis,\n" +
		"analyzes technology, market and competition against a local evidence\n" +
		"corpus with web fallback, and gates report generation on a\n" +
		"deterministic multi-criteria decision.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logging.Init(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
		loaded = cfg
		return nil
	},
}

// loaded holds the configuration resolved in PersistentPreRunE.
var loaded config.Config

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath, "path to config YAML")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(decisionsCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
