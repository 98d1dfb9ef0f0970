// ABOUTME: AgentTool exposes an agent to another agent as a single-input tool
// ABOUTME: Each call runs the wrapped agent's Query on a fresh history
package agent

import (
	"context"
	"fmt"

	"github.com/harper/orpheo/internal/models"
	"github.com/harper/orpheo/internal/tools"
)

// AgentTool wraps an Agent as a Tool
type AgentTool struct {
	agent *Agent
	meta  models.ToolMetadata
}

// AsTool wraps a under name and description
func AsTool(a *Agent, name, description string) (*AgentTool, error) {
	schema, err := tools.Schema(&tools.QueryInput{})
	if err != nil {
		return nil, err
	}
	meta := models.ToolMetadata{Name: name, Description: description, Parameters: schema}
	if err := meta.Validate(); err != nil {
		return nil, fmt.Errorf("invalid agent tool %q: %w", name, err)
	}
	return &AgentTool{agent: a, meta: meta}, nil
}

// Metadata returns the tool's name, description and schema
func (t *AgentTool) Metadata() models.ToolMetadata {
	return t.meta
}

// Agent returns the wrapped agent
func (t *AgentTool) Agent() *Agent {
	return t.agent
}

// Call asks the wrapped agent the input question
func (t *AgentTool) Call(ctx context.Context, arguments string) (string, error) {
	input := tools.ParseQueryInput(arguments)
	if input == "" {
		return "", fmt.Errorf("%s: empty input", t.meta.Name)
	}
	return t.agent.Query(ctx, input)
}
