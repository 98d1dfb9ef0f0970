// ABOUTME: ObjectIndex is an embedding index over tool names and descriptions
// ABOUTME: The top-level agent uses it to retrieve the most relevant document agents per question
package core

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/harper/orpheo/internal/llm"
	"github.com/harper/orpheo/internal/storage/sqlite"
	"github.com/harper/orpheo/internal/tools"
)

// DefaultToolTopK is how many tools are offered per question
const DefaultToolTopK = 2

// ScoredTool is a retrieved tool with its cosine similarity to the question
type ScoredTool struct {
	Tool  tools.Tool
	Score float64
}

// ObjectIndex retrieves tools by semantic similarity
type ObjectIndex struct {
	embedder llm.Embedder
	tools    []tools.Tool
	vectors  [][]float32
	topK     int
}

// NewObjectIndex embeds every tool's name and description
func NewObjectIndex(ctx context.Context, embedder llm.Embedder, toolset []tools.Tool, topK int) (*ObjectIndex, error) {
	if len(toolset) == 0 {
		return nil, ErrNoTools
	}
	if topK <= 0 {
		topK = DefaultToolTopK
	}

	texts := make([]string, len(toolset))
	for i, t := range toolset {
		texts[i] = t.Metadata().IndexText()
	}
	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed tool descriptions: %w", err)
	}
	if len(vectors) != len(toolset) {
		return nil, errors.New("embedder returned wrong number of vectors")
	}

	return &ObjectIndex{
		embedder: embedder,
		tools:    append([]tools.Tool(nil), toolset...),
		vectors:  vectors,
		topK:     topK,
	}, nil
}

// Len returns the number of indexed tools
func (o *ObjectIndex) Len() int {
	return len(o.tools)
}

// All returns every indexed tool in build order
func (o *ObjectIndex) All() []tools.Tool {
	return append([]tools.Tool(nil), o.tools...)
}

// Retrieve returns the k tools closest to query, best first.
// Ties keep build order.
func (o *ObjectIndex) Retrieve(ctx context.Context, query string, k int) ([]ScoredTool, error) {
	if k <= 0 {
		return nil, nil
	}
	q, err := llm.EmbedOne(ctx, o.embedder, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	scored := make([]ScoredTool, len(o.tools))
	for i, t := range o.tools {
		scored[i] = ScoredTool{Tool: t, Score: sqlite.CosineSimilarity(q, o.vectors[i])}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// Tools returns the top-k tools for query, satisfying agent.ToolSource
func (o *ObjectIndex) Tools(ctx context.Context, query string) ([]tools.Tool, error) {
	scored, err := o.Retrieve(ctx, query, o.topK)
	if err != nil {
		return nil, err
	}
	out := make([]tools.Tool, len(scored))
	for i, s := range scored {
		out[i] = s.Tool
	}
	return out, nil
}
