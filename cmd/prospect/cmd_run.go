package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"prospect/internal/logging"
)

var runNoReports bool

var runCmd = &cobra.Command{
	Use:   "run <query>",
	Short: "Discover and analyze companies for an investment query",
	Long: `Runs the full pipeline for a free-text investment thesis: discovery,
concurrent technology and market analysis, competitor assessment, and the
decision gate. Companies classified invest get a report artifact.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runNoReports, "no-reports", false, "skip report generation regardless of config")
}

func runRun(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	cfg := loaded
	if runNoReports {
		cfg.Report.Enabled = false
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	machine := buildMachine(cfg, st)

	logging.New("cli").Info("starting run", "query", query)
	state, err := machine.Run(cmd.Context(), query)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Companies discovered: %d\n", len(state.Companies))
	for _, c := range state.Companies {
		fmt.Fprintf(out, "  - %s (%s)\n", c.Name, c.Industry)
	}
	fmt.Fprintf(out, "Reports generated: %d\n", len(state.Reports))
	for _, r := range state.Reports {
		fmt.Fprintf(out, "  - %s: %s\n", r.Company, r.Artifact)
	}
	return nil
}
