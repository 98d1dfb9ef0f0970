// ABOUTME: Chunk represents a contiguous slice of a document, the unit of retrieval
// ABOUTME: Offsets point back into the owning document's content
package models

// Chunk is a retrievable piece of a document ("node")
type Chunk struct {
	ChunkID       string `json:"chunk_id"`
	DocumentTitle string `json:"document_title"`
	Index         int    `json:"index"`
	Content       string `json:"content"`
	StartChar     int    `json:"start_char"`
	EndChar       int    `json:"end_char"`
}

// Len returns the content length in bytes
func (c Chunk) Len() int {
	return len(c.Content)
}

// ScoredChunk is a retrieval hit with its similarity score
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}
