package main

import (
	"context"

	"github.com/spf13/cobra"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	mcpserver "prospect/internal/mcp"
	"prospect/internal/logging"
	"prospect/internal/pipeline"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout. Agent frontends connect and
drive analysis runs through the start_run, get_status, get_reports,
list_decisions and export_graph tools.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	st, err := openStore(loaded)
	if err != nil {
		return err
	}
	defer st.Close()

	factory := func() *pipeline.Machine { return buildMachine(loaded, st) }
	srv := mcpserver.NewServer(factory, st)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	logging.New("mcp").Info("starting prospect MCP server over stdio")
	return srv.Run(ctx, &sdkmcp.StdioTransport{})
}
