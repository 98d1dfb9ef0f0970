// ABOUTME: Tests for document, message and tool models
// ABOUTME: Verifies validation rules and message constructors
package models

import "testing"

func TestDocument_Validate(t *testing.T) {
	tests := []struct {
		name    string
		doc     Document
		wantErr bool
	}{
		{"valid document", Document{Title: "a", Content: "hello"}, false},
		{"empty title", Document{Title: "", Content: "hello"}, true},
		{"empty content", Document{Title: "a", Content: ""}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRole_IsValid(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleSystem, true},
		{RoleUser, true},
		{RoleAssistant, true},
		{RoleTool, true},
		{Role("function"), false},
		{Role(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := tt.role.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToolResultMessage(t *testing.T) {
	call := ToolCall{ID: "call_1", Name: "vector_tool_a", Arguments: `{"input":"x"}`}
	msg := ToolResultMessage(call, "result")

	if msg.Role != RoleTool {
		t.Errorf("Role = %q, want %q", msg.Role, RoleTool)
	}
	if msg.ToolCallID != "call_1" {
		t.Errorf("ToolCallID = %q, want %q", msg.ToolCallID, "call_1")
	}
	if msg.Name != "vector_tool_a" {
		t.Errorf("Name = %q, want %q", msg.Name, "vector_tool_a")
	}
	if msg.HasToolCalls() {
		t.Error("tool result should not carry tool calls")
	}
}

func TestToolMetadata_Validate(t *testing.T) {
	tests := []struct {
		name    string
		meta    ToolMetadata
		wantErr bool
	}{
		{"valid", ToolMetadata{Name: "summary_tool_a", Description: "summaries"}, false},
		{"empty name", ToolMetadata{Description: "x"}, true},
		{"name with space", ToolMetadata{Name: "bad name", Description: "x"}, true},
		{"empty description", ToolMetadata{Name: "ok"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.meta.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestToolMetadata_IndexText(t *testing.T) {
	meta := ToolMetadata{Name: "agent_expert_in_document_a", Description: "About a."}
	want := "agent_expert_in_document_a\nAbout a."
	if got := meta.IndexText(); got != want {
		t.Errorf("IndexText() = %q, want %q", got, want)
	}
}
