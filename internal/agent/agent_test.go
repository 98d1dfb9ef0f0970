// ABOUTME: Tests for the bounded tool-calling loop, history handling and agent tools
// ABOUTME: Uses scripted fake models to drive tool requests
package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/harper/orpheo/internal/llm/llmtest"
	"github.com/harper/orpheo/internal/models"
	"github.com/harper/orpheo/internal/tools"
)

type engineFunc func(ctx context.Context, query string) (string, error)

func (f engineFunc) Query(ctx context.Context, query string) (string, error) {
	return f(ctx, query)
}

func newEchoTool(t *testing.T, name string, calls *int) tools.Tool {
	t.Helper()
	tool, err := tools.NewQueryEngineTool(name, "Echo text back.", engineFunc(func(ctx context.Context, query string) (string, error) {
		*calls++
		return "echo:" + query, nil
	}))
	if err != nil {
		t.Fatalf("NewQueryEngineTool() error = %v", err)
	}
	return tool
}

// callOnceThenAnswer requests the named tool once, then answers with the tool result
func callOnceThenAnswer(name, args string) *llmtest.FakeModel {
	return &llmtest.FakeModel{Respond: func(ctx context.Context, msgs []models.Message, offered []models.ToolMetadata) (models.Message, error) {
		if llmtest.HasToolResults(msgs) {
			return models.AssistantMessage("final: " + msgs[len(msgs)-1].Content), nil
		}
		return models.Message{
			Role:      models.RoleAssistant,
			ToolCalls: []models.ToolCall{{ID: "call_1", Name: name, Arguments: args}},
		}, nil
	}}
}

func TestQuery_NoTools(t *testing.T) {
	model := llmtest.Echo()
	a, err := New(model, nil, Options{SystemPrompt: "be brief"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got, err := a.Query(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if got != "hello" {
		t.Errorf("Query() = %q, want hello", got)
	}

	req := model.Requests()[0]
	if req[0].Role != models.RoleSystem || req[0].Content != "be brief" {
		t.Errorf("first message = %+v, want system prompt", req[0])
	}
}

func TestQuery_ExecutesToolCalls(t *testing.T) {
	calls := 0
	model := callOnceThenAnswer("echo", `{"text":"hi"}`)
	a, _ := New(model, StaticTools{newEchoTool(t, "echo", &calls)}, Options{})

	got, err := a.Query(context.Background(), "say hi")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if got != "final: echo:hi" {
		t.Errorf("Query() = %q", got)
	}
	if calls != 1 {
		t.Errorf("tool calls = %d, want 1", calls)
	}

	second := model.Requests()[1]
	last := second[len(second)-1]
	if last.Role != models.RoleTool || last.ToolCallID != "call_1" || last.Name != "echo" {
		t.Errorf("tool result message = %+v", last)
	}
	if len(model.OfferedTools()[0]) != 1 {
		t.Errorf("offered tools = %v, want 1", model.OfferedTools()[0])
	}
}

func TestQuery_StopsAtIterationCap(t *testing.T) {
	calls := 0
	model := &llmtest.FakeModel{Respond: func(ctx context.Context, msgs []models.Message, offered []models.ToolMetadata) (models.Message, error) {
		return models.Message{
			Role:      models.RoleAssistant,
			ToolCalls: []models.ToolCall{{ID: "loop", Name: "echo", Arguments: `{"text":"again"}`}},
		}, nil
	}}
	a, _ := New(model, StaticTools{newEchoTool(t, "echo", &calls)}, Options{MaxIterations: 3})

	_, err := a.Query(context.Background(), "loop forever")
	if !errors.Is(err, ErrMaxIterations) {
		t.Fatalf("Query() error = %v, want ErrMaxIterations", err)
	}
	if n := len(model.Requests()); n != 3 {
		t.Errorf("model calls = %d, want 3", n)
	}
	if calls != 3 {
		t.Errorf("tool calls = %d, want 3", calls)
	}
}

func TestQuery_DefaultIterationCap(t *testing.T) {
	model := &llmtest.FakeModel{Respond: func(ctx context.Context, msgs []models.Message, offered []models.ToolMetadata) (models.Message, error) {
		return models.Message{
			Role:      models.RoleAssistant,
			ToolCalls: []models.ToolCall{{ID: "x", Name: "missing"}},
		}, nil
	}}
	a, _ := New(model, nil, Options{})

	if _, err := a.Query(context.Background(), "q"); !errors.Is(err, ErrMaxIterations) {
		t.Fatalf("Query() error = %v, want ErrMaxIterations", err)
	}
	if n := len(model.Requests()); n != DefaultMaxIterations {
		t.Errorf("model calls = %d, want %d", n, DefaultMaxIterations)
	}
}

func TestQuery_UnknownToolReportedToModel(t *testing.T) {
	model := callOnceThenAnswer("nope", `{}`)
	a, _ := New(model, nil, Options{})

	got, err := a.Query(context.Background(), "q")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if !strings.Contains(got, "does not exist") {
		t.Errorf("Query() = %q, want unknown tool report", got)
	}
}

func TestQuery_ToolErrorReportedToModel(t *testing.T) {
	failing, _ := tools.NewQueryEngineTool("fail", "Always fails.", engineFunc(func(ctx context.Context, query string) (string, error) {
		return "", errors.New("boom")
	}))
	var events []ToolEvent
	model := callOnceThenAnswer("fail", `{"input": "anything"}`)
	a, _ := New(model, StaticTools{failing}, Options{
		Name:       "tester",
		OnToolCall: func(e ToolEvent) { events = append(events, e) },
	})

	got, err := a.Query(context.Background(), "q")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if !strings.Contains(got, "boom") {
		t.Errorf("Query() = %q, want tool error text", got)
	}
	if len(events) != 1 || events[0].Tool != "fail" || events[0].Agent != "tester" || events[0].Err == nil {
		t.Errorf("events = %+v", events)
	}
}

func TestQuery_ContextCancelled(t *testing.T) {
	a, _ := New(llmtest.Echo(), nil, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := a.Query(ctx, "q"); !errors.Is(err, context.Canceled) {
		t.Errorf("Query() error = %v, want context.Canceled", err)
	}
}

func TestQuery_DoesNotTouchHistory(t *testing.T) {
	a, _ := New(llmtest.Echo(), nil, Options{SystemPrompt: "sys"})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = a.Query(context.Background(), "parallel")
		}()
	}
	wg.Wait()

	if h := a.History(); len(h) != 1 {
		t.Errorf("History() length = %d, want 1 (system prompt only)", len(h))
	}
}

func TestChat_KeepsConversation(t *testing.T) {
	model := llmtest.Echo()
	a, _ := New(model, nil, Options{SystemPrompt: "sys"})

	if _, err := a.Chat(context.Background(), "first"); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if _, err := a.Chat(context.Background(), "second"); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	// system, user, assistant, user, assistant
	if h := a.History(); len(h) != 5 {
		t.Fatalf("History() length = %d, want 5", len(h))
	}
	second := model.Requests()[1]
	if second[1].Content != "first" {
		t.Errorf("second request should carry the first turn, got %+v", second)
	}

	a.Reset()
	h := a.History()
	if len(h) != 1 || h[0].Role != models.RoleSystem {
		t.Errorf("History() after Reset = %+v, want system prompt only", h)
	}
}

type retrieverFunc func(ctx context.Context, query string) ([]tools.Tool, error)

func (f retrieverFunc) Tools(ctx context.Context, query string) ([]tools.Tool, error) {
	return f(ctx, query)
}

func TestQuery_RetrievesToolsPerQuestion(t *testing.T) {
	calls := 0
	alpha := newEchoTool(t, "alpha", &calls)
	beta := newEchoTool(t, "beta", &calls)

	source := retrieverFunc(func(ctx context.Context, query string) ([]tools.Tool, error) {
		if strings.Contains(query, "alpha") {
			return []tools.Tool{alpha}, nil
		}
		return []tools.Tool{beta}, nil
	})
	model := llmtest.Echo()
	a, _ := New(model, source, Options{})

	_, _ = a.Query(context.Background(), "about alpha")
	_, _ = a.Query(context.Background(), "about something else")

	offered := model.OfferedTools()
	if offered[0][0].Name != "alpha" || offered[1][0].Name != "beta" {
		t.Errorf("offered tools = %+v", offered)
	}
}

type verdict struct {
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
}

func TestQueryInto_Blueprint(t *testing.T) {
	model := &llmtest.FakeModel{Respond: func(ctx context.Context, msgs []models.Message, offered []models.ToolMetadata) (models.Message, error) {
		return models.AssistantMessage("```json\n{\"answer\": \"rivers\", \"confidence\": 0.9}\n```"), nil
	}}
	a, err := New(model, nil, Options{Blueprint: &verdict{}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var v verdict
	if err := a.QueryInto(context.Background(), "what flows?", &v); err != nil {
		t.Fatalf("QueryInto() error = %v", err)
	}
	if v.Answer != "rivers" || v.Confidence != 0.9 {
		t.Errorf("QueryInto() = %+v", v)
	}

	user := llmtest.LastUser(model.Requests()[0])
	if !strings.Contains(user, `"confidence"`) || !strings.HasPrefix(user, "what flows?") {
		t.Errorf("user message missing schema instruction: %q", user)
	}
}

func TestAsTool(t *testing.T) {
	inner, _ := New(llmtest.Echo(), nil, Options{Name: "inner"})
	tool, err := AsTool(inner, "agent_expert_in_document_a", "This document contains information about a.")
	if err != nil {
		t.Fatalf("AsTool() error = %v", err)
	}

	got, err := tool.Call(context.Background(), `{"input":"what is a?"}`)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if got != "what is a?" {
		t.Errorf("Call() = %q", got)
	}

	outer, _ := New(callOnceThenAnswer("agent_expert_in_document_a", `{"input":"nested"}`), StaticTools{tool}, Options{})
	answer, err := outer.Query(context.Background(), "ask the expert")
	if err != nil {
		t.Fatalf("outer Query() error = %v", err)
	}
	if answer != "final: nested" {
		t.Errorf("outer Query() = %q, want final: nested", answer)
	}
}
