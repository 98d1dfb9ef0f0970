// ABOUTME: Language-model and embedding capabilities the agents depend on
// ABOUTME: Concrete clients live alongside; tests substitute fakes from llmtest
package llm

import (
	"context"
	"errors"

	"github.com/harper/orpheo/internal/models"
)

// ErrEmptyResponse is returned when a backend answers with no choices or vectors
var ErrEmptyResponse = errors.New("empty response from model")

// ChatModel answers a chat history, optionally requesting tool calls
type ChatModel interface {
	Chat(ctx context.Context, messages []models.Message, tools []models.ToolMetadata) (models.Message, error)
}

// Embedder turns texts into vectors, one per input in input order
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
}

// Complete runs a single-turn completion without tools and returns the text
func Complete(ctx context.Context, model ChatModel, systemPrompt, prompt string) (string, error) {
	messages := make([]models.Message, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, models.SystemMessage(systemPrompt))
	}
	messages = append(messages, models.UserMessage(prompt))

	reply, err := model.Chat(ctx, messages, nil)
	if err != nil {
		return "", err
	}
	return reply.Content, nil
}

// EmbedOne embeds a single text
func EmbedOne(ctx context.Context, embedder Embedder, text string) ([]float32, error) {
	vectors, err := embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, ErrEmptyResponse
	}
	return vectors[0], nil
}
