// ABOUTME: Agent runs a bounded tool-calling loop against a chat model
// ABOUTME: Tools come from a static set or are retrieved per query
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/harper/orpheo/internal/llm"
	"github.com/harper/orpheo/internal/logging"
	"github.com/harper/orpheo/internal/models"
	"github.com/harper/orpheo/internal/tools"
)

// DefaultMaxIterations caps model calls per question
const DefaultMaxIterations = 10

// ErrMaxIterations is returned when the model keeps requesting tools past the cap
var ErrMaxIterations = errors.New("agent exceeded maximum iterations")

// ToolSource yields the tools offered for a given question
type ToolSource interface {
	Tools(ctx context.Context, query string) ([]tools.Tool, error)
}

// StaticTools offers the same tools for every question
type StaticTools []tools.Tool

// Tools returns the fixed set
func (s StaticTools) Tools(ctx context.Context, query string) ([]tools.Tool, error) {
	return s, nil
}

// ToolEvent describes one finished tool call
type ToolEvent struct {
	Agent    string
	Tool     string
	Duration time.Duration
	Err      error
}

// Options configures an Agent
type Options struct {
	Name          string
	SystemPrompt  string
	MaxIterations int
	// Blueprint, when set, is a struct whose JSON schema is appended to every question
	Blueprint  any
	Logger     *slog.Logger
	OnToolCall func(ToolEvent)
}

// Agent answers questions using a model and a set of tools
type Agent struct {
	model  llm.ChatModel
	source ToolSource
	opts   Options
	logger *slog.Logger

	blueprint string

	mu      sync.Mutex
	history []models.Message
}

// New creates an agent. A nil source offers no tools.
func New(model llm.ChatModel, source ToolSource, opts Options) (*Agent, error) {
	if model == nil {
		return nil, errors.New("agent requires a chat model")
	}
	if source == nil {
		source = StaticTools(nil)
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}

	a := &Agent{
		model:  model,
		source: source,
		opts:   opts,
		logger: logging.OrDefault(opts.Logger).With("agent", opts.Name),
	}

	if opts.Blueprint != nil {
		instruction, err := blueprintInstruction(opts.Blueprint)
		if err != nil {
			return nil, err
		}
		a.blueprint = instruction
	}

	a.history = a.initialHistory()
	return a, nil
}

// Name returns the agent's name
func (a *Agent) Name() string {
	return a.opts.Name
}

// SystemPrompt returns the agent's system prompt
func (a *Agent) SystemPrompt() string {
	return a.opts.SystemPrompt
}

func (a *Agent) initialHistory() []models.Message {
	if a.opts.SystemPrompt == "" {
		return nil
	}
	return []models.Message{models.SystemMessage(a.opts.SystemPrompt)}
}

// Query answers a single question without touching the shared history.
// Safe for concurrent use.
func (a *Agent) Query(ctx context.Context, question string) (string, error) {
	_, answer, err := a.run(ctx, a.initialHistory(), question)
	return answer, err
}

// Chat answers a question as the next turn of the agent's conversation
func (a *Agent) Chat(ctx context.Context, message string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	history, answer, err := a.run(ctx, append([]models.Message(nil), a.history...), message)
	if err != nil {
		return "", err
	}
	a.history = history
	return answer, nil
}

// Reset clears the conversation, keeping the system prompt
func (a *Agent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = a.initialHistory()
}

// History returns a copy of the conversation so far
func (a *Agent) History() []models.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.Message(nil), a.history...)
}

// run appends the question to history and loops until the model stops calling tools
func (a *Agent) run(ctx context.Context, history []models.Message, question string) ([]models.Message, string, error) {
	offered, err := a.source.Tools(ctx, question)
	if err != nil {
		return history, "", fmt.Errorf("failed to retrieve tools: %w", err)
	}
	registry, err := tools.NewRegistry(offered...)
	if err != nil {
		return history, "", err
	}
	metadata := registry.Metadata()

	content := question
	if a.blueprint != "" {
		content += a.blueprint
	}
	history = append(history, models.UserMessage(content))

	for i := 0; i < a.opts.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return history, "", err
		}

		reply, err := a.model.Chat(ctx, history, metadata)
		if err != nil {
			return history, "", fmt.Errorf("chat failed: %w", err)
		}
		history = append(history, reply)

		if !reply.HasToolCalls() {
			return history, reply.Content, nil
		}

		for _, call := range reply.ToolCalls {
			result := a.callTool(ctx, registry, call)
			history = append(history, models.ToolResultMessage(call, result))
		}
	}

	a.logger.Warn("tool loop hit iteration cap", "max_iterations", a.opts.MaxIterations)
	return history, "", fmt.Errorf("%w (%d)", ErrMaxIterations, a.opts.MaxIterations)
}

// callTool runs one tool call; failures become the tool's reply to the model
func (a *Agent) callTool(ctx context.Context, registry *tools.Registry, call models.ToolCall) string {
	tool, ok := registry.Get(call.Name)
	if !ok {
		a.logger.Warn("model requested unknown tool", "tool", call.Name)
		a.emit(call.Name, 0, fmt.Errorf("unknown tool %s", call.Name))
		return fmt.Sprintf("Error: tool %q does not exist", call.Name)
	}

	a.logger.Debug("calling tool", "tool", call.Name, "arguments", call.Arguments)
	start := time.Now()
	result, err := tool.Call(ctx, call.Arguments)
	a.emit(call.Name, time.Since(start), err)
	if err != nil {
		a.logger.Warn("tool call failed", "tool", call.Name, "error", err)
		return fmt.Sprintf("Error: %v", err)
	}
	a.logger.Debug("tool returned", "tool", call.Name, "length", len(result))
	return result
}

func (a *Agent) emit(tool string, d time.Duration, err error) {
	if a.opts.OnToolCall == nil {
		return
	}
	a.opts.OnToolCall(ToolEvent{Agent: a.opts.Name, Tool: tool, Duration: d, Err: err})
}
