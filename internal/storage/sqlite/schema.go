// ABOUTME: SQLite database schema for a per-document docstore
// ABOUTME: Holds chunks, their embedding vectors and the index metadata used for staleness checks
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- Index metadata singleton table
CREATE TABLE IF NOT EXISTS index_meta (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    document_title TEXT NOT NULL,
    source_path TEXT,
    content_hash TEXT NOT NULL,
    embedding_model TEXT NOT NULL,
    dimensions INTEGER NOT NULL,
    schema_version INTEGER NOT NULL,
    chunk_count INTEGER NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Chunks table (document nodes in order)
CREATE TABLE IF NOT EXISTS chunks (
    id TEXT PRIMARY KEY,
    position INTEGER NOT NULL UNIQUE,
    document_title TEXT NOT NULL,
    content TEXT NOT NULL,
    start_char INTEGER NOT NULL,
    end_char INTEGER NOT NULL
);

-- Embeddings table (vector storage)
CREATE TABLE IF NOT EXISTS embeddings (
    chunk_id TEXT PRIMARY KEY REFERENCES chunks(id) ON DELETE CASCADE,
    vector BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chunks_position ON chunks(position);
`

// SchemaVersion is the current schema version, recorded in index_meta
const SchemaVersion = 1
