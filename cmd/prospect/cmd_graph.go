package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"prospect/internal/pipeline"
)

var graphOut string

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the pipeline phase graph as Graphviz DOT",
	RunE:  runGraph,
}

func init() {
	graphCmd.Flags().StringVarP(&graphOut, "out", "o", "", "write DOT to a file instead of stdout")
}

func runGraph(cmd *cobra.Command, _ []string) error {
	if graphOut == "" {
		return pipeline.WriteDOT(cmd.OutOrStdout())
	}
	f, err := os.Create(graphOut)
	if err != nil {
		return fmt.Errorf("create graph file: %w", err)
	}
	defer f.Close()
	if err := pipeline.WriteDOT(f); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", graphOut)
	return nil
}
