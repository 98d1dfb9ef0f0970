// ABOUTME: Index metadata persistence for staleness detection
// ABOUTME: Records content hash and embedding model of the last successful build
package sqlite

import (
	"database/sql"
	"time"
)

// IndexMeta describes the persisted index of one document
type IndexMeta struct {
	DocumentTitle  string
	SourcePath     string
	ContentHash    string
	EmbeddingModel string
	Dimensions     int
	SchemaVersion  int
	ChunkCount     int
	CreatedAt      time.Time
}

// MetaStore handles index metadata persistence
type MetaStore struct {
	db *DB
}

// NewMetaStore creates a new MetaStore
func NewMetaStore(db *DB) *MetaStore {
	return &MetaStore{db: db}
}

// Get returns the stored metadata, or nil when the index was never written
func (s *MetaStore) Get() (*IndexMeta, error) {
	var (
		meta       IndexMeta
		sourcePath sql.NullString
	)

	err := s.db.QueryRow(`
		SELECT document_title, source_path, content_hash, embedding_model,
		       dimensions, schema_version, chunk_count, created_at
		FROM index_meta WHERE id = 1
	`).Scan(&meta.DocumentTitle, &sourcePath, &meta.ContentHash, &meta.EmbeddingModel,
		&meta.Dimensions, &meta.SchemaVersion, &meta.ChunkCount, &meta.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sourcePath.Valid {
		meta.SourcePath = sourcePath.String
	}
	return &meta, nil
}

// put writes metadata inside an open transaction
func putMeta(tx *sql.Tx, meta *IndexMeta) error {
	_, err := tx.Exec(`
		INSERT INTO index_meta (id, document_title, source_path, content_hash, embedding_model,
		                        dimensions, schema_version, chunk_count, created_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_title = excluded.document_title,
			source_path = excluded.source_path,
			content_hash = excluded.content_hash,
			embedding_model = excluded.embedding_model,
			dimensions = excluded.dimensions,
			schema_version = excluded.schema_version,
			chunk_count = excluded.chunk_count,
			created_at = excluded.created_at
	`, meta.DocumentTitle, nullString(meta.SourcePath), meta.ContentHash, meta.EmbeddingModel,
		meta.Dimensions, meta.SchemaVersion, meta.ChunkCount, meta.CreatedAt)
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
