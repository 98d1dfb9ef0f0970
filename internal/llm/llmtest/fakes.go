// ABOUTME: Deterministic fakes for ChatModel and Embedder used across package tests
// ABOUTME: The embedder hashes words into a fixed-size vector and counts every text it embeds
package llmtest

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"unicode"

	"github.com/harper/orpheo/internal/models"
)

// Dimensions of FakeEmbedder vectors
const Dimensions = 64

// FakeEmbedder produces bag-of-words vectors so texts sharing words score close
type FakeEmbedder struct {
	Model string
	Err   error

	mu       sync.Mutex
	calls    int
	embedded []string
}

// Embed returns one normalized vector per text
func (f *FakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.calls++
	f.embedded = append(f.embedded, texts...)
	f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = Vector(text)
	}
	return out, nil
}

// ModelName returns the configured model, defaulting to "fake-embed"
func (f *FakeEmbedder) ModelName() string {
	if f.Model == "" {
		return "fake-embed"
	}
	return f.Model
}

// Calls returns the number of Embed invocations
func (f *FakeEmbedder) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Embedded returns every text embedded so far
func (f *FakeEmbedder) Embedded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.embedded...)
}

// Reset clears the counters
func (f *FakeEmbedder) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = 0
	f.embedded = nil
}

// Vector hashes lowercase words of text into a unit vector
func Vector(text string) []float32 {
	vec := make([]float32, Dimensions)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		h.Write([]byte(w))
		vec[h.Sum32()%Dimensions]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

// ChatFunc answers one chat request
type ChatFunc func(ctx context.Context, messages []models.Message, tools []models.ToolMetadata) (models.Message, error)

// FakeModel is a ChatModel driven by a function, recording every request
type FakeModel struct {
	Respond ChatFunc

	mu       sync.Mutex
	requests [][]models.Message
	offered  [][]models.ToolMetadata
}

// Chat records the request and delegates to Respond
func (f *FakeModel) Chat(ctx context.Context, messages []models.Message, tools []models.ToolMetadata) (models.Message, error) {
	if err := ctx.Err(); err != nil {
		return models.Message{}, err
	}
	f.mu.Lock()
	f.requests = append(f.requests, append([]models.Message(nil), messages...))
	f.offered = append(f.offered, append([]models.ToolMetadata(nil), tools...))
	f.mu.Unlock()

	if f.Respond == nil {
		return models.AssistantMessage("ok"), nil
	}
	return f.Respond(ctx, messages, tools)
}

// Requests returns the recorded chat histories
func (f *FakeModel) Requests() [][]models.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]models.Message(nil), f.requests...)
}

// OfferedTools returns the tool sets offered with each request
func (f *FakeModel) OfferedTools() [][]models.ToolMetadata {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]models.ToolMetadata(nil), f.offered...)
}

// Echo answers every request with the last user message content
func Echo() *FakeModel {
	return &FakeModel{Respond: func(ctx context.Context, messages []models.Message, tools []models.ToolMetadata) (models.Message, error) {
		return models.AssistantMessage(LastUser(messages)), nil
	}}
}

// LastUser returns the content of the most recent user message
func LastUser(messages []models.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

// HasToolResults reports whether the history ends in tool results
func HasToolResults(messages []models.Message) bool {
	return len(messages) > 0 && messages[len(messages)-1].Role == models.RoleTool
}
