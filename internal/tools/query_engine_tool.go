// ABOUTME: QueryEngineTool exposes a query engine to agents under a name and description
// ABOUTME: Used for the per-document vector and summary tools
package tools

import (
	"context"
	"fmt"

	"github.com/harper/orpheo/internal/models"
)

// QueryEngine answers a question
type QueryEngine interface {
	Query(ctx context.Context, query string) (string, error)
}

// QueryEngineTool wraps a QueryEngine
type QueryEngineTool struct {
	meta   models.ToolMetadata
	engine QueryEngine
}

var queryInputSchema, _ = Schema(&QueryInput{})

// NewQueryEngineTool creates a tool taking a single "input" string argument
func NewQueryEngineTool(name, description string, engine QueryEngine) (*QueryEngineTool, error) {
	meta := models.ToolMetadata{Name: name, Description: description, Parameters: queryInputSchema}
	if err := meta.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tool %q: %w", name, err)
	}
	return &QueryEngineTool{meta: meta, engine: engine}, nil
}

// Metadata returns the tool's name, description and schema
func (t *QueryEngineTool) Metadata() models.ToolMetadata {
	return t.meta
}

// Call runs the wrapped engine on the input question
func (t *QueryEngineTool) Call(ctx context.Context, arguments string) (string, error) {
	input := ParseQueryInput(arguments)
	if input == "" {
		return "", fmt.Errorf("%s: empty input", t.meta.Name)
	}
	return t.engine.Query(ctx, input)
}
