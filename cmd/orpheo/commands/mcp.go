// ABOUTME: MCP command starts the Model Context Protocol server
// ABOUTME: Lets LLM agents like Claude query the document agents via stdio
package commands

import (
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/harper/orpheo/internal/mcp"
)

// MCPServerName and MCPServerVersion identify the server to MCP clients
const (
	MCPServerName    = "Orpheo Document Agents"
	MCPServerVersion = "0.1.0"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs Orpheo as an MCP (Model Context Protocol) server, enabling
LLM agents like Claude to ask questions across your documents via stdio.

Tools: ask_documents, list_documents, rebuild_index.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by Claude Desktop)
  orpheo mcp --in-dir ~/notes

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "orpheo": {
  #       "command": "orpheo",
  #       "args": ["mcp", "--in-dir", "/path/to/documents"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	agents, _, logger, err := buildGraph(ctx, cmd)
	if agents == nil {
		return err
	}
	if err != nil {
		// rebuild_index can recover once documents appear
		logger.Warn("initial build failed", "error", err)
	}

	server := mcpserver.NewMCPServer(MCPServerName, MCPServerVersion)
	mcp.RegisterTools(server, agents, logger)

	logger.Info("MCP server starting on stdio")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
