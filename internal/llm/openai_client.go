// ABOUTME: OpenAI-compatible client for chat with tool calls and batch embeddings
// ABOUTME: Serves OpenAI, Azure OpenAI and Ollama's /v1 endpoint, with retry and per-request timeout
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/harper/orpheo/internal/config"
	"github.com/harper/orpheo/internal/models"
	"github.com/harper/orpheo/internal/util"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultChatModel is the default model for chat completions
	DefaultChatModel = "gpt-4o-mini"
	// DefaultEmbeddingModel is the default model for embeddings
	DefaultEmbeddingModel = string(openai.SmallEmbedding3)

	// embedBatchSize bounds inputs per embeddings request
	embedBatchSize = 96
)

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	Provider        string
	APIKey          string
	BaseURL         string
	AzureAPIVersion string
	ChatModel       string
	EmbeddingModel  string
	Temperature     float32
	Timeout         time.Duration
	MaxRetries      int
	RetryDelay      time.Duration
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		Provider:       config.ProviderOpenAI,
		APIKey:         apiKey,
		ChatModel:      DefaultChatModel,
		EmbeddingModel: DefaultEmbeddingModel,
		Timeout:        120 * time.Second,
		MaxRetries:     3,
		RetryDelay:     time.Second * 2,
	}
}

// ConfigFrom maps application configuration onto client configuration
func ConfigFrom(cfg *config.Config) *ClientConfig {
	return &ClientConfig{
		Provider:        cfg.Provider,
		APIKey:          cfg.OpenAIKey,
		BaseURL:         cfg.BaseURL,
		AzureAPIVersion: cfg.AzureAPIVersion,
		ChatModel:       cfg.ChatModel,
		EmbeddingModel:  cfg.EmbeddingModel,
		Timeout:         cfg.Timeout,
		MaxRetries:      cfg.MaxRetries,
		RetryDelay:      cfg.RetryDelay,
	}
}

// OpenAIClient wraps the OpenAI API client with retry logic.
// It implements both ChatModel and Embedder.
type OpenAIClient struct {
	client         *openai.Client
	chatModel      string
	embeddingModel string
	temperature    float32
	timeout        time.Duration
	maxRetries     int
	retryDelay     time.Duration
}

var (
	_ ChatModel = (*OpenAIClient)(nil)
	_ Embedder  = (*OpenAIClient)(nil)
)

// NewOpenAIClient creates a new OpenAI client with the given API key using default configuration
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	return NewOpenAIClientWithConfig(DefaultConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a new client with custom configuration
func NewOpenAIClientWithConfig(cfg *ClientConfig) (*OpenAIClient, error) {
	var clientConfig openai.ClientConfig

	switch cfg.Provider {
	case config.ProviderAzure:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		clientConfig = openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
		if cfg.AzureAPIVersion != "" {
			clientConfig.APIVersion = cfg.AzureAPIVersion
		}
	case config.ProviderOllama:
		// Ollama ignores the key but the header must be present
		key := cfg.APIKey
		if key == "" {
			key = "ollama"
		}
		clientConfig = openai.DefaultConfig(key)
		clientConfig.BaseURL = cfg.BaseURL
	default:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		clientConfig = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
	}

	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	embeddingModel := cfg.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}

	return &OpenAIClient{
		client:         openai.NewClientWithConfig(clientConfig),
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
		temperature:    cfg.Temperature,
		timeout:        cfg.Timeout,
		maxRetries:     cfg.MaxRetries,
		retryDelay:     cfg.RetryDelay,
	}, nil
}

// ModelName returns the embedding model name, used to key persisted indexes
func (c *OpenAIClient) ModelName() string {
	return c.embeddingModel
}

// ChatModelName returns the chat model name
func (c *OpenAIClient) ChatModelName() string {
	return c.chatModel
}

// Chat sends the history and tool definitions and returns the assistant reply
func (c *OpenAIClient) Chat(ctx context.Context, messages []models.Message, tools []models.ToolMetadata) (models.Message, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Messages:    toOpenAIMessages(messages),
		Tools:       toOpenAITools(tools),
		Temperature: c.temperature,
	}

	reply, err := util.Retry(ctx, c.maxRetries, c.retryDelay, c.timeout, func(ctx context.Context) (models.Message, error) {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return models.Message{}, err
		}
		if len(resp.Choices) == 0 {
			return models.Message{}, ErrEmptyResponse
		}
		return fromOpenAIMessage(resp.Choices[0].Message), nil
	})
	if err != nil {
		return models.Message{}, fmt.Errorf("chat completion: %w", err)
	}
	return reply, nil
}

// Embed generates one embedding per text, batching requests
func (c *OpenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))
		batch := texts[start:end]

		vectors, err := util.Retry(ctx, c.maxRetries, c.retryDelay, c.timeout, func(ctx context.Context) ([][]float32, error) {
			resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
				Input: batch,
				Model: openai.EmbeddingModel(c.embeddingModel),
			})
			if err != nil {
				return nil, err
			}
			if len(resp.Data) != len(batch) {
				return nil, fmt.Errorf("%w: got %d embeddings for %d inputs", ErrEmptyResponse, len(resp.Data), len(batch))
			}
			// Data may come back out of order; Index is authoritative
			ordered := make([][]float32, len(batch))
			for _, d := range resp.Data {
				if d.Index < 0 || d.Index >= len(batch) {
					return nil, fmt.Errorf("embedding index %d out of range", d.Index)
				}
				ordered[d.Index] = d.Embedding
			}
			return ordered, nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		out = append(out, vectors...)
	}

	return out, nil
}

func toOpenAIMessages(messages []models.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msg := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		if m.Role == models.RoleTool {
			msg.Name = m.Name
		}
		for _, call := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   call.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      call.Name,
					Arguments: call.Arguments,
				},
			})
		}
		out = append(out, msg)
	}
	return out
}

func fromOpenAIMessage(m openai.ChatCompletionMessage) models.Message {
	msg := models.Message{
		Role:    models.RoleAssistant,
		Content: m.Content,
	}
	for _, call := range m.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, models.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}
	return msg
}

func toOpenAITools(tools []models.ToolMetadata) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		def := &openai.FunctionDefinition{
			Name:        t.Name,
			Description: t.Description,
		}
		if len(t.Parameters) > 0 {
			def.Parameters = t.Parameters
		}
		out = append(out, openai.Tool{Type: openai.ToolTypeFunction, Function: def})
	}
	return out
}
