// ABOUTME: MCP tool definitions and registration for the document agents server
// ABOUTME: Exposes asking, listing and rebuilding the document graph
package mcp

import (
	"log/slog"

	"github.com/harper/orpheo/internal/logging"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, graph Graph, logger *slog.Logger) *Handlers {
	handlers := NewHandlers(graph, logger)

	// 1. ask_documents - route a question through the top-level agent
	server.AddTool(mcp.Tool{
		Name:        "ask_documents",
		Description: "Ask a question about the indexed documents. The question is routed to the most relevant per-document agents.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "Natural-language question about the documents",
				},
			},
			Required: []string{"question"},
		},
	}, handlers.AskDocuments)

	// 2. list_documents - show what is indexed
	server.AddTool(mcp.Tool{
		Name:        "list_documents",
		Description: "List the indexed documents with their chunk counts and cache directories.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ListDocuments)

	// 3. rebuild_index - pick up added, changed or removed files
	server.AddTool(mcp.Tool{
		Name:        "rebuild_index",
		Description: "Rebuild the document agents from the input directory. Unchanged documents reuse their cached indexes.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.RebuildIndex)

	return handlers
}

// NewHandlers creates handlers over graph
func NewHandlers(graph Graph, logger *slog.Logger) *Handlers {
	return &Handlers{graph: graph, logger: logging.OrDefault(logger)}
}
