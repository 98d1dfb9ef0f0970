// ABOUTME: Synthesizer turns retrieved chunks into an answer with the chat model
// ABOUTME: Packs context under a token budget and tree-summarizes when it overflows
package index

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/harper/orpheo/internal/llm"
)

// DefaultContextTokens is the prompt budget per synthesis call
const DefaultContextTokens = 3000

// maxTreeDepth bounds summarize rounds for pathological inputs
const maxTreeDepth = 8

// ErrNoContext is returned when there is nothing to synthesize from
var ErrNoContext = errors.New("no context to answer from")

// Synthesizer builds answers from text sections
type Synthesizer struct {
	model     llm.ChatModel
	maxTokens int
}

// NewSynthesizer creates a Synthesizer with a prompt budget in tokens
func NewSynthesizer(model llm.ChatModel, maxTokens int) *Synthesizer {
	if maxTokens <= 0 {
		maxTokens = DefaultContextTokens
	}
	return &Synthesizer{model: model, maxTokens: maxTokens}
}

// Answer answers query from the given sections in one call when they fit,
// falling back to tree summarization otherwise
func (s *Synthesizer) Answer(ctx context.Context, query string, sections []string) (string, error) {
	if len(sections) == 0 {
		return "", ErrNoContext
	}
	batches := s.pack(query, sections)
	if len(batches) == 1 {
		return s.ask(ctx, textQATemplate, query, batches[0])
	}
	return s.TreeSummarize(ctx, query, sections)
}

// TreeSummarize answers query per context-sized batch, then combines
// the partial answers the same way until one answer remains
func (s *Synthesizer) TreeSummarize(ctx context.Context, query string, sections []string) (string, error) {
	if len(sections) == 0 {
		return "", ErrNoContext
	}

	current := sections
	for depth := 0; depth < maxTreeDepth; depth++ {
		batches := s.pack(query, current)

		answers := make([]string, 0, len(batches))
		for i, batch := range batches {
			answer, err := s.ask(ctx, summaryTemplate, query, batch)
			if err != nil {
				return "", fmt.Errorf("summarize batch %d/%d: %w", i+1, len(batches), err)
			}
			answers = append(answers, answer)
		}

		if len(answers) == 1 {
			return answers[0], nil
		}
		current = answers
	}

	// Budget too small to converge; answer from truncated partials
	return s.ask(ctx, summaryTemplate, query, limitTokens(strings.Join(current, "\n\n"), s.budgetChars(query)))
}

func (s *Synthesizer) ask(ctx context.Context, template, query, contextText string) (string, error) {
	prompt := fmt.Sprintf(template, contextText, query)
	return llm.Complete(ctx, s.model, synthesizerSystemPrompt, prompt)
}

// pack groups sections into batches that fit the budget.
// Oversized sections are truncated to fit on their own.
func (s *Synthesizer) pack(query string, sections []string) []string {
	budget := s.budgetChars(query)

	var (
		batches []string
		current strings.Builder
	)
	for _, section := range sections {
		section = limitTokens(section, budget)
		if current.Len() > 0 && current.Len()+len(section)+2 > budget {
			batches = append(batches, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(section)
	}
	if current.Len() > 0 {
		batches = append(batches, current.String())
	}
	return batches
}

// budgetChars is the context budget left after the template and query (4 chars ≈ 1 token)
func (s *Synthesizer) budgetChars(query string) int {
	budget := s.maxTokens*4 - len(summaryTemplate) - len(synthesizerSystemPrompt) - len(query)
	if budget < 256 {
		budget = 256
	}
	return budget
}

// limitTokens truncates text to maxChars, keeping whole runes
func limitTokens(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}
	cut := maxChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
