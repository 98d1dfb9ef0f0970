// ABOUTME: ChunkEngine splits document text into overlapping, sentence-aligned chunks
// ABOUTME: Chunks keep byte offsets into the source so answers can point back at the text
package core

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/harper/orpheo/internal/models"
)

// Default chunking parameters
const (
	DefaultChunkSize    = 1024
	DefaultChunkOverlap = 200
)

// ChunkEngine handles sentence-aware text chunking
type ChunkEngine struct {
	chunkSize int
	overlap   int
}

// NewChunkEngine creates a new ChunkEngine instance.
// Non-positive sizes fall back to defaults; overlap is clamped below size.
func NewChunkEngine(chunkSize, overlap int) *ChunkEngine {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &ChunkEngine{chunkSize: chunkSize, overlap: overlap}
}

// ChunkSize returns the target chunk size in bytes
func (ce *ChunkEngine) ChunkSize() int {
	return ce.chunkSize
}

// Overlap returns the overlap carried between consecutive chunks
func (ce *ChunkEngine) Overlap() int {
	return ce.overlap
}

// span is a [start, end) byte range of the source text
type span struct {
	start, end int
}

// ChunkDocument splits text into chunks for the titled document
func (ce *ChunkEngine) ChunkDocument(title, text string) ([]models.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("cannot chunk empty text")
	}

	var spans []span
	for _, s := range splitSentences(text) {
		spans = append(spans, ce.splitLong(text, s)...)
	}

	var chunks []models.Chunk
	for i := 0; i < len(spans); {
		// Grow the window while it fits
		j := i
		for j+1 < len(spans) && spans[j+1].end-spans[i].start <= ce.chunkSize {
			j++
		}

		start, end := spans[i].start, spans[j].end
		chunks = append(chunks, models.Chunk{
			ChunkID:       generateChunkID(),
			DocumentTitle: title,
			Index:         len(chunks),
			Content:       text[start:end],
			StartChar:     start,
			EndChar:       end,
		})

		if j+1 >= len(spans) {
			break
		}

		// Next window starts at the earliest sentence that fits in the overlap
		next := j + 1
		for k := i + 1; k <= j; k++ {
			if end-spans[k].start <= ce.overlap {
				next = k
				break
			}
		}
		i = next
	}

	return chunks, nil
}

// splitLong breaks a sentence longer than the chunk size at word boundaries
func (ce *ChunkEngine) splitLong(text string, s span) []span {
	if s.end-s.start <= ce.chunkSize {
		return []span{s}
	}

	var out []span
	start := s.start
	for s.end-start > ce.chunkSize {
		cut := start + ce.chunkSize
		// Prefer the last whitespace inside the window
		if ws := strings.LastIndexFunc(text[start:cut], unicode.IsSpace); ws > 0 {
			cut = start + ws
		}
		for cut > start && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == start {
			cut = start + ce.chunkSize
		}
		out = append(out, trimSpan(text, span{start, cut}))
		start = cut
		for start < s.end && isSpaceByte(text[start]) {
			start++
		}
	}
	if start < s.end {
		out = append(out, trimSpan(text, span{start, s.end}))
	}
	return out
}

// splitSentences finds sentence spans ending at . ! ? followed by whitespace,
// or at paragraph breaks
func splitSentences(text string) []span {
	var spans []span
	start := 0

	emit := func(end int) {
		s := trimSpan(text, span{start, end})
		if s.end > s.start {
			spans = append(spans, s)
		}
		start = end
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '.' || c == '!' || c == '?':
			// Absorb closing quotes and brackets
			end := i + 1
			for end < len(text) && strings.IndexByte(`"')]`, text[end]) >= 0 {
				end++
			}
			if end == len(text) || isSpaceByte(text[end]) {
				emit(end)
				i = end - 1
			}
		case c == '\n' && i+1 < len(text) && isParagraphBreak(text[i+1:]):
			emit(i)
		}
	}
	if start < len(text) {
		emit(len(text))
	}
	return spans
}

// isParagraphBreak reports whether rest begins with optional spaces and a newline
func isParagraphBreak(rest string) bool {
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case '\n':
			return true
		case ' ', '\t', '\r':
			continue
		default:
			return false
		}
	}
	return false
}

func trimSpan(text string, s span) span {
	for s.start < s.end && isSpaceByte(text[s.start]) {
		s.start++
	}
	for s.end > s.start && isSpaceByte(text[s.end-1]) {
		s.end--
	}
	return s
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\r'
}

// generateChunkID generates a unique chunk ID
func generateChunkID() string {
	return "chunk_" + uuid.New().String()
}
