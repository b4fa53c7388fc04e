package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var decisionsCompany string

var decisionsCmd = &cobra.Command{
	Use:   "decisions",
	Short: "List persisted decision outcomes",
	RunE:  runDecisions,
}

func init() {
	decisionsCmd.Flags().StringVar(&decisionsCompany, "company", "", "filter by company name")
}

func runDecisions(cmd *cobra.Command, _ []string) error {
	st, err := openStore(loaded)
	if err != nil {
		return err
	}
	defer st.Close()

	decisions, err := st.ListDecisions(cmd.Context(), decisionsCompany)
	if err != nil {
		return fmt.Errorf("list decisions: %w", err)
	}
	if len(decisions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No decisions recorded.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COMPANY\tLABEL\tTOTAL\tARTIFACT")
	for _, d := range decisions {
		fmt.Fprintf(w, "%s\t%s\t%.1f\t%s\n", d.Company, d.Label, d.Total, d.Artifact)
	}
	return w.Flush()
}
