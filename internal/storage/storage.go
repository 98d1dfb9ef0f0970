// ABOUTME: Per-document persisted index: SQLite docstore plus HNSW graph files
// ABOUTME: One Storage owns one cache directory <out_dir>/<sanitized_title>/
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harper/orpheo/internal/models"
	"github.com/harper/orpheo/internal/storage/sqlite"
)

// File names inside a cache directory
const (
	DocstoreFileName = "docstore.db"
	GraphFileName    = "vectors.hnsw"
)

// ErrNotPersisted is returned by Load when the directory holds no complete index
var ErrNotPersisted = errors.New("no persisted index")

// Storage manages the persisted index of one document
type Storage struct {
	dir    string
	db     *sqlite.DB
	chunks *sqlite.ChunkStore
	meta   *sqlite.MetaStore
	lock   *FileLock
}

// Persisted is the content of a loaded cache directory
type Persisted struct {
	Meta    *sqlite.IndexMeta
	Chunks  []models.Chunk
	Vectors [][]float32
	Graph   *VectorStorage
	// GraphRebuilt is set when the graph file was missing or unreadable
	// and was rebuilt from stored vectors
	GraphRebuilt bool
}

// Exists reports whether dir holds a docstore
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, DocstoreFileName))
	return err == nil
}

// Open opens or creates the cache directory's docstore
func Open(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}

	db, err := sqlite.Open(filepath.Join(dir, DocstoreFileName))
	if err != nil {
		return nil, err
	}

	return &Storage{
		dir:    dir,
		db:     db,
		chunks: sqlite.NewChunkStore(db),
		meta:   sqlite.NewMetaStore(db),
		lock:   NewFileLock(dir),
	}, nil
}

// Reset removes persisted index files from dir, keeping the directory and lock file
func Reset(dir string) error {
	var errs []error
	for _, name := range []string{
		DocstoreFileName, DocstoreFileName + "-wal", DocstoreFileName + "-shm",
		GraphFileName, GraphFileName + ".meta",
	} {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dir returns the cache directory
func (s *Storage) Dir() string {
	return s.dir
}

// GraphPath returns the HNSW graph file path
func (s *Storage) GraphPath() string {
	return filepath.Join(s.dir, GraphFileName)
}

// Lock takes the cross-process lock for this directory
func (s *Storage) Lock(ctx context.Context) error {
	return s.lock.Lock(ctx)
}

// Close closes the docstore and releases the lock if held
func (s *Storage) Close() error {
	unlockErr := s.lock.Unlock()
	closeErr := s.db.Close()
	return errors.Join(unlockErr, closeErr)
}

// Meta returns the stored metadata, nil when nothing was persisted
func (s *Storage) Meta() (*sqlite.IndexMeta, error) {
	return s.meta.Get()
}

// Save persists the graph first, then chunks, vectors and metadata in one transaction.
// A crash between the two leaves stale metadata that fails the next staleness check.
func (s *Storage) Save(ctx context.Context, meta *sqlite.IndexMeta, chunks []models.Chunk, vectors [][]float32, graph *VectorStorage) error {
	if err := graph.Save(s.GraphPath()); err != nil {
		return fmt.Errorf("failed to save vector graph: %w", err)
	}
	if err := s.chunks.ReplaceAll(ctx, meta, chunks, vectors); err != nil {
		return fmt.Errorf("failed to save docstore: %w", err)
	}
	return nil
}

// Load reads the persisted index. The graph is rebuilt from stored
// vectors when its files are missing or corrupt; no re-embedding happens.
func (s *Storage) Load() (*Persisted, error) {
	meta, err := s.meta.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to read index metadata: %w", err)
	}
	if meta == nil {
		return nil, ErrNotPersisted
	}
	if meta.SchemaVersion != sqlite.SchemaVersion {
		return nil, fmt.Errorf("schema version %d, want %d", meta.SchemaVersion, sqlite.SchemaVersion)
	}

	chunks, vectors, err := s.chunks.All()
	if err != nil {
		return nil, fmt.Errorf("failed to read chunks: %w", err)
	}
	if len(chunks) != meta.ChunkCount {
		return nil, fmt.Errorf("docstore has %d chunks, metadata says %d", len(chunks), meta.ChunkCount)
	}

	p := &Persisted{Meta: meta, Chunks: chunks, Vectors: vectors, Graph: NewVectorStorage()}
	if err := p.Graph.Load(s.GraphPath()); err != nil || p.Graph.Len() != len(chunks) {
		p.Graph = NewVectorStorage()
		if err := p.Graph.Add(ChunkIDs(chunks), vectors); err != nil {
			return nil, fmt.Errorf("failed to rebuild vector graph: %w", err)
		}
		p.GraphRebuilt = true
	}
	return p, nil
}

// ChunkIDs returns the IDs of chunks in order
func ChunkIDs(chunks []models.Chunk) []string {
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ChunkID
	}
	return ids
}
