package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/taxonomist/internal/adapters/driving/mcp"
	"github.com/custodia-labs/taxonomist/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC. Runs started
through the start_run tool execute in the background; poll them with
job_status and read the results with get_taxonomy and get_documents.

Prompt template files are watched while the server runs, so edits apply to
the next run without a restart.

Examples:
  # Stdio mode (default)
  taxonomist mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  taxonomist mcp serve --port 8080

Client configuration:
  {
    "mcpServers": {
      "taxonomist": {
        "command": "/path/to/taxonomist",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	ports := &mcp.Ports{
		Runs:     runService,
		Jobs:     jobService,
		Settings: settingsService,
		Sources:  sourceLoader,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}
	defer jobService.Shutdown()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if promptManager != nil {
		if err := promptManager.Watch(ctx); err != nil {
			logger.Warn("prompt templates will not reload: %v", err)
		}
	}

	var addr string
	if port > 0 {
		addr = fmt.Sprintf(":%d", port)
		cmd.PrintErrf("MCP server listening on http://localhost%s\n", addr)
	}
	return server.Serve(ctx, addr)
}
