// ABOUTME: Tests for ChunkEngine sentence-aware chunking
// ABOUTME: Verifies offsets, size bounds, overlap and long-sentence splitting
package core

import (
	"strings"
	"testing"
)

func TestNewChunkEngine_Defaults(t *testing.T) {
	ce := NewChunkEngine(0, -1)
	if ce.chunkSize != DefaultChunkSize {
		t.Errorf("chunkSize = %d, want %d", ce.chunkSize, DefaultChunkSize)
	}
	if ce.overlap != 0 {
		t.Errorf("overlap = %d, want 0", ce.overlap)
	}

	ce = NewChunkEngine(100, 100)
	if ce.overlap >= ce.chunkSize {
		t.Errorf("overlap %d should be clamped below size %d", ce.overlap, ce.chunkSize)
	}
}

func TestChunkDocument_EmptyText(t *testing.T) {
	ce := NewChunkEngine(100, 10)

	tests := []struct {
		name string
		text string
	}{
		{"empty string", ""},
		{"whitespace only", "   "},
		{"tabs and newlines", "\t\n\r"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := ce.ChunkDocument("doc", tt.text)
			if err == nil {
				t.Error("Expected error for empty text")
			}
			if chunks != nil {
				t.Errorf("Expected nil chunks, got %d", len(chunks))
			}
		})
	}
}

func TestChunkDocument_ShortTextSingleChunk(t *testing.T) {
	ce := NewChunkEngine(1024, 200)
	text := "This is a simple sentence. And another one!"

	chunks, err := ce.ChunkDocument("doc", text)
	if err != nil {
		t.Fatalf("ChunkDocument() error = %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	c := chunks[0]
	if c.Content != text {
		t.Errorf("Content = %q, want %q", c.Content, text)
	}
	if c.DocumentTitle != "doc" || c.Index != 0 {
		t.Errorf("unexpected chunk metadata: %+v", c)
	}
	if !strings.HasPrefix(c.ChunkID, "chunk_") {
		t.Errorf("ChunkID = %q, want chunk_ prefix", c.ChunkID)
	}
}

func TestChunkDocument_OffsetsAndBounds(t *testing.T) {
	ce := NewChunkEngine(60, 25)
	text := "Rivers carry water to the sea. Mountains collect snow in winter. " +
		"Forests hold the soil in place. Deserts receive little rain each year. " +
		"Cities grow along the coasts."

	chunks, err := ce.ChunkDocument("geo", text)
	if err != nil {
		t.Fatalf("ChunkDocument() error = %v", err)
	}
	if len(chunks) < 3 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}

	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d has Index %d", i, c.Index)
		}
		if text[c.StartChar:c.EndChar] != c.Content {
			t.Errorf("chunk %d offsets do not match content", i)
		}
		if c.EndChar-c.StartChar > 60 {
			t.Errorf("chunk %d length %d exceeds size", i, c.EndChar-c.StartChar)
		}
		if i > 0 && c.StartChar <= chunks[i-1].StartChar {
			t.Errorf("chunk %d does not advance", i)
		}
	}

	if chunks[0].StartChar != 0 {
		t.Errorf("first chunk should start at 0, got %d", chunks[0].StartChar)
	}
	if chunks[len(chunks)-1].EndChar != len(text) {
		t.Errorf("last chunk should end at %d, got %d", len(text), chunks[len(chunks)-1].EndChar)
	}
}

func TestChunkDocument_Overlap(t *testing.T) {
	ce := NewChunkEngine(50, 20)
	// Sentences of 16 bytes each
	text := "Alpha is first. Bravo is next. Charlie is third. Delta is fourth."

	chunks, err := ce.ChunkDocument("nato", text)
	if err != nil {
		t.Fatalf("ChunkDocument() error = %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	if chunks[1].StartChar >= chunks[0].EndChar {
		t.Errorf("expected overlap: chunk 1 starts at %d, chunk 0 ends at %d",
			chunks[1].StartChar, chunks[0].EndChar)
	}
}

func TestChunkDocument_LongSentenceSplitAtWords(t *testing.T) {
	ce := NewChunkEngine(20, 0)
	text := strings.Repeat("word ", 20)

	chunks, err := ce.ChunkDocument("long", text)
	if err != nil {
		t.Fatalf("ChunkDocument() error = %v", err)
	}
	for _, c := range chunks {
		if len(c.Content) > 20 {
			t.Errorf("chunk exceeds size: %q", c.Content)
		}
		if strings.HasPrefix(c.Content, "ord") || strings.HasSuffix(c.Content, "wor") {
			t.Errorf("chunk split inside a word: %q", c.Content)
		}
	}
}

func TestSplitSentences_ParagraphBreaks(t *testing.T) {
	text := "Heading without stop\n\nBody text here. More body"
	spans := splitSentences(text)

	var got []string
	for _, s := range spans {
		got = append(got, text[s.start:s.end])
	}
	want := []string{"Heading without stop", "Body text here.", "More body"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("splitSentences() = %q, want %q", got, want)
	}
}

func TestSplitSentences_Abbreviations(t *testing.T) {
	text := `He said "stop." Then version 1.5 shipped.`
	spans := splitSentences(text)
	if len(spans) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(spans))
	}
	if text[spans[0].start:spans[0].end] != `He said "stop."` {
		t.Errorf("first sentence = %q", text[spans[0].start:spans[0].end])
	}
}
