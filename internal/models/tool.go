// ABOUTME: ToolMetadata is the name, description and argument schema of a callable tool
// ABOUTME: Name and description are the only signals used when selecting tools
package models

import (
	"encoding/json"
	"errors"
	"strings"
)

// ToolMetadata describes a tool to a language model
type ToolMetadata struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// Validate checks the metadata is usable in a tool-calling request
func (m ToolMetadata) Validate() error {
	if m.Name == "" {
		return errors.New("tool name cannot be empty")
	}
	if strings.ContainsAny(m.Name, " \t\n") {
		return errors.New("tool name cannot contain whitespace")
	}
	if m.Description == "" {
		return errors.New("tool description cannot be empty")
	}
	return nil
}

// IndexText is the text embedded for tool retrieval
func (m ToolMetadata) IndexText() string {
	return m.Name + "\n" + m.Description
}
