// ABOUTME: Query engines answer a natural-language question against one index
// ABOUTME: Vector engine retrieves top-k chunks; summary engine reads everything
package index

import (
	"context"
	"fmt"
)

// DefaultSimilarityTopK is the number of chunks the vector engine retrieves
const DefaultSimilarityTopK = 2

// QueryEngine answers a question
type QueryEngine interface {
	Query(ctx context.Context, query string) (string, error)
}

// VectorQueryEngine answers from the most similar chunks
type VectorQueryEngine struct {
	index *VectorIndex
	synth *Synthesizer
	topK  int
}

// NewVectorQueryEngine creates a VectorQueryEngine
func NewVectorQueryEngine(index *VectorIndex, synth *Synthesizer, topK int) *VectorQueryEngine {
	if topK <= 0 {
		topK = DefaultSimilarityTopK
	}
	return &VectorQueryEngine{index: index, synth: synth, topK: topK}
}

// Query retrieves top-k chunks and synthesizes an answer
func (e *VectorQueryEngine) Query(ctx context.Context, query string) (string, error) {
	hits, err := e.index.Retrieve(ctx, query, e.topK)
	if err != nil {
		return "", fmt.Errorf("retrieve from %s: %w", e.index.Title(), err)
	}

	sections := make([]string, len(hits))
	for i, h := range hits {
		sections[i] = h.Chunk.Content
	}
	return e.synth.Answer(ctx, query, sections)
}

// SummaryQueryEngine answers by tree-summarizing the whole document
type SummaryQueryEngine struct {
	index *SummaryIndex
	synth *Synthesizer
}

// NewSummaryQueryEngine creates a SummaryQueryEngine
func NewSummaryQueryEngine(index *SummaryIndex, synth *Synthesizer) *SummaryQueryEngine {
	return &SummaryQueryEngine{index: index, synth: synth}
}

// Query summarizes all chunks with respect to query
func (e *SummaryQueryEngine) Query(ctx context.Context, query string) (string, error) {
	return e.synth.TreeSummarize(ctx, query, e.index.Sections())
}
