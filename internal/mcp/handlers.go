// ABOUTME: MCP tool handler implementations for the document agents server
// ABOUTME: Tool failures are returned as MCP error results, never as protocol errors
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/harper/orpheo/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

// Graph is the part of the document agent graph the handlers need
type Graph interface {
	Ask(ctx context.Context, question string) (string, error)
	Documents() []models.DocumentStatus
	UpdateFiles(ctx context.Context) error
}

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	graph  Graph
	logger *slog.Logger
}

// AskDocuments handles the ask_documents tool
func (h *Handlers) AskDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil || question == "" {
		return mcp.NewToolResultError("question argument is required and must be a non-empty string"), nil
	}

	answer, err := h.graph.Ask(ctx, question)
	if err != nil {
		h.logger.Warn("ask_documents failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to answer: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"question": question,
		"answer":   answer,
	})
}

// ListDocuments handles the list_documents tool
func (h *Handlers) ListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs := h.graph.Documents()
	if docs == nil {
		docs = []models.DocumentStatus{}
	}
	return jsonResult(map[string]interface{}{
		"count":     len(docs),
		"documents": docs,
	})
}

// RebuildIndex handles the rebuild_index tool
func (h *Handlers) RebuildIndex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.graph.UpdateFiles(ctx); err != nil {
		h.logger.Warn("rebuild_index failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("rebuild failed: %v", err)), nil
	}

	docs := h.graph.Documents()
	reused := 0
	for _, d := range docs {
		if d.CacheReused {
			reused++
		}
	}
	return jsonResult(map[string]interface{}{
		"success":   true,
		"documents": len(docs),
		"reused":    reused,
	})
}

func jsonResult(response map[string]interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
