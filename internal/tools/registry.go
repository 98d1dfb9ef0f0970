// ABOUTME: Registry is an ordered set of tools with unique names
// ABOUTME: Lookup by name dispatches model tool calls
package tools

import (
	"errors"
	"fmt"

	"github.com/harper/orpheo/internal/models"
)

// ErrDuplicateTool is returned when a tool name is registered twice
var ErrDuplicateTool = errors.New("duplicate tool name")

// Registry holds tools in insertion order
type Registry struct {
	tools  []Tool
	byName map[string]Tool
}

// NewRegistry builds a registry, failing on duplicate names
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{byName: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if err := r.Add(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add appends a tool
func (r *Registry) Add(t Tool) error {
	name := t.Metadata().Name
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
	}
	r.tools = append(r.tools, t)
	r.byName[name] = t
	return nil
}

// Get returns the tool with name
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Tools returns all tools in order
func (r *Registry) Tools() []Tool {
	return append([]Tool(nil), r.tools...)
}

// Metadata returns every tool's metadata in order
func (r *Registry) Metadata() []models.ToolMetadata {
	out := make([]models.ToolMetadata, len(r.tools))
	for i, t := range r.tools {
		out[i] = t.Metadata()
	}
	return out
}

// Len returns the number of tools
func (r *Registry) Len() int {
	return len(r.tools)
}
