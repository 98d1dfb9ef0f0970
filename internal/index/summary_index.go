// ABOUTME: SummaryIndex answers whole-document questions over every chunk
// ABOUTME: Needs no embeddings, so it is rebuilt from chunks on every build
package index

import "github.com/harper/orpheo/internal/models"

// SummaryIndex holds all chunks of one document in order
type SummaryIndex struct {
	title  string
	chunks []models.Chunk
}

// NewSummaryIndex creates a SummaryIndex over chunks
func NewSummaryIndex(title string, chunks []models.Chunk) *SummaryIndex {
	return &SummaryIndex{title: title, chunks: chunks}
}

// Title returns the document title
func (s *SummaryIndex) Title() string {
	return s.title
}

// Sections returns chunk contents in document order
func (s *SummaryIndex) Sections() []string {
	out := make([]string, len(s.chunks))
	for i, c := range s.chunks {
		out[i] = c.Content
	}
	return out
}
