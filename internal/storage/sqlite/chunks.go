// ABOUTME: Chunk and vector persistence for a document's docstore
// ABOUTME: A build replaces every row atomically, metadata last
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/harper/orpheo/internal/models"
)

// ChunkStore handles chunk and embedding persistence
type ChunkStore struct {
	db *DB
}

// NewChunkStore creates a new ChunkStore
func NewChunkStore(db *DB) *ChunkStore {
	return &ChunkStore{db: db}
}

// ReplaceAll swaps the stored chunks, vectors and metadata in one transaction
func (s *ChunkStore) ReplaceAll(ctx context.Context, meta *IndexMeta, chunks []models.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}

	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM index_meta"); err != nil {
			return fmt.Errorf("failed to clear metadata: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM embeddings"); err != nil {
			return fmt.Errorf("failed to clear vectors: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM chunks"); err != nil {
			return fmt.Errorf("failed to clear chunks: %w", err)
		}

		chunkStmt, err := tx.Prepare(`
			INSERT INTO chunks (id, position, document_title, content, start_char, end_char)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer func() { _ = chunkStmt.Close() }()

		vecStmt, err := tx.Prepare("INSERT INTO embeddings (chunk_id, vector) VALUES (?, ?)")
		if err != nil {
			return err
		}
		defer func() { _ = vecStmt.Close() }()

		for i, c := range chunks {
			if _, err := chunkStmt.Exec(c.ChunkID, c.Index, c.DocumentTitle, c.Content, c.StartChar, c.EndChar); err != nil {
				return fmt.Errorf("failed to save chunk %s: %w", c.ChunkID, err)
			}
			if _, err := vecStmt.Exec(c.ChunkID, vectorToBlob(vectors[i])); err != nil {
				return fmt.Errorf("failed to save vector for %s: %w", c.ChunkID, err)
			}
		}

		meta.SchemaVersion = SchemaVersion
		meta.ChunkCount = len(chunks)
		if meta.CreatedAt.IsZero() {
			meta.CreatedAt = time.Now()
		}
		return putMeta(tx, meta)
	})
}

// All returns every chunk in document order with its vector
func (s *ChunkStore) All() ([]models.Chunk, [][]float32, error) {
	rows, err := s.db.Query(`
		SELECT c.id, c.position, c.document_title, c.content, c.start_char, c.end_char, e.vector
		FROM chunks c
		JOIN embeddings e ON e.chunk_id = c.id
		ORDER BY c.position ASC
	`)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = rows.Close() }()

	var (
		chunks  []models.Chunk
		vectors [][]float32
	)
	for rows.Next() {
		var (
			c    models.Chunk
			blob []byte
		)
		if err := rows.Scan(&c.ChunkID, &c.Index, &c.DocumentTitle, &c.Content, &c.StartChar, &c.EndChar, &blob); err != nil {
			return nil, nil, err
		}
		chunks = append(chunks, c)
		vectors = append(vectors, blobToVector(blob))
	}

	return chunks, vectors, rows.Err()
}

// Count returns the number of stored chunks
func (s *ChunkStore) Count() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&n)
	return n, err
}
