// ABOUTME: Tool is a named, described callable an agent can invoke with JSON arguments
// ABOUTME: Argument schemas are reflected from Go structs
package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/harper/orpheo/internal/models"
	"github.com/invopop/jsonschema"
)

// Tool is anything an agent can call
type Tool interface {
	Metadata() models.ToolMetadata
	Call(ctx context.Context, arguments string) (string, error)
}

// QueryInput is the single-string argument shared by query engine and agent tools
type QueryInput struct {
	Input string `json:"input" jsonschema_description:"The natural-language question to answer"`
}

// Schema returns the JSON schema of v's type, inlined without $schema/$id
func Schema(v any) (json.RawMessage, error) {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	schema := r.Reflect(v)
	schema.Version = ""
	schema.ID = ""
	return json.Marshal(schema)
}

// ParseQueryInput extracts the question from tool arguments.
// Some local models send a bare string instead of {"input": ...}.
func ParseQueryInput(arguments string) string {
	arguments = strings.TrimSpace(arguments)

	var in QueryInput
	if err := json.Unmarshal([]byte(arguments), &in); err == nil && in.Input != "" {
		return in.Input
	}

	var generic map[string]any
	if err := json.Unmarshal([]byte(arguments), &generic); err == nil {
		for _, v := range generic {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}

	var s string
	if err := json.Unmarshal([]byte(arguments), &s); err == nil {
		return s
	}
	return arguments
}
