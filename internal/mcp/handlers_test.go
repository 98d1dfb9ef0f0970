// ABOUTME: Tests for MCP handlers against a stub document graph
// ABOUTME: Checks argument validation, JSON payloads and error results
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/harper/orpheo/internal/logging"
	"github.com/harper/orpheo/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

type stubGraph struct {
	answer     string
	askErr     error
	rebuildErr error
	docs       []models.DocumentStatus
	rebuilds   int
}

func (s *stubGraph) Ask(ctx context.Context, question string) (string, error) {
	return s.answer, s.askErr
}

func (s *stubGraph) Documents() []models.DocumentStatus {
	return s.docs
}

func (s *stubGraph) UpdateFiles(ctx context.Context) error {
	s.rebuilds++
	return s.rebuildErr
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", res.Content[0])
	}
	return text.Text
}

func TestAskDocuments(t *testing.T) {
	h := NewHandlers(&stubGraph{answer: "rivers flow"}, logging.Discard())

	res, err := h.AskDocuments(context.Background(), callRequest("ask_documents", map[string]any{"question": "what flows?"}))
	if err != nil {
		t.Fatalf("AskDocuments() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}

	var payload struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &payload); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if payload.Answer != "rivers flow" || payload.Question != "what flows?" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestAskDocuments_Errors(t *testing.T) {
	tests := []struct {
		name  string
		graph *stubGraph
		args  map[string]any
	}{
		{"missing question", &stubGraph{}, map[string]any{}},
		{"empty question", &stubGraph{}, map[string]any{"question": ""}},
		{"graph failure", &stubGraph{askErr: errors.New("not built")}, map[string]any{"question": "q"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandlers(tt.graph, logging.Discard())
			res, err := h.AskDocuments(context.Background(), callRequest("ask_documents", tt.args))
			if err != nil {
				t.Fatalf("AskDocuments() error = %v", err)
			}
			if !res.IsError {
				t.Error("expected error result")
			}
		})
	}
}

func TestListDocuments(t *testing.T) {
	graph := &stubGraph{docs: []models.DocumentStatus{
		{Title: "a", Chunks: 3},
		{Title: "b_report", Chunks: 5, CacheReused: true},
	}}
	h := NewHandlers(graph, logging.Discard())

	res, err := h.ListDocuments(context.Background(), callRequest("list_documents", nil))
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}

	var payload struct {
		Count     int                     `json:"count"`
		Documents []models.DocumentStatus `json:"documents"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &payload); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if payload.Count != 2 || payload.Documents[1].Title != "b_report" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestRebuildIndex(t *testing.T) {
	graph := &stubGraph{docs: []models.DocumentStatus{{Title: "a", CacheReused: true}, {Title: "b"}}}
	h := NewHandlers(graph, logging.Discard())

	res, err := h.RebuildIndex(context.Background(), callRequest("rebuild_index", nil))
	if err != nil {
		t.Fatalf("RebuildIndex() error = %v", err)
	}
	if res.IsError || graph.rebuilds != 1 {
		t.Fatalf("rebuild not performed: %s", resultText(t, res))
	}

	var payload struct {
		Documents int `json:"documents"`
		Reused    int `json:"reused"`
	}
	_ = json.Unmarshal([]byte(resultText(t, res)), &payload)
	if payload.Documents != 2 || payload.Reused != 1 {
		t.Errorf("payload = %+v", payload)
	}

	graph.rebuildErr = errors.New("no tools are available")
	res, _ = h.RebuildIndex(context.Background(), callRequest("rebuild_index", nil))
	if !res.IsError {
		t.Error("expected error result when rebuild fails")
	}
}
