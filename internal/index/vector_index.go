// ABOUTME: VectorIndex retrieves a document's chunks nearest to a query embedding
// ABOUTME: Builds fresh or reloads from the document's cache directory without re-embedding
package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/harper/orpheo/internal/llm"
	"github.com/harper/orpheo/internal/logging"
	"github.com/harper/orpheo/internal/models"
	"github.com/harper/orpheo/internal/storage"
	"github.com/harper/orpheo/internal/storage/sqlite"
)

// VectorIndex holds a document's chunks, their embeddings and an ANN graph
type VectorIndex struct {
	title    string
	chunks   []models.Chunk
	vectors  [][]float32
	byID     map[string]int
	graph    *storage.VectorStorage
	embedder llm.Embedder
}

func newVectorIndex(title string, chunks []models.Chunk, vectors [][]float32, graph *storage.VectorStorage, embedder llm.Embedder) *VectorIndex {
	byID := make(map[string]int, len(chunks))
	for i, c := range chunks {
		byID[c.ChunkID] = i
	}
	return &VectorIndex{
		title:    title,
		chunks:   chunks,
		vectors:  vectors,
		byID:     byID,
		graph:    graph,
		embedder: embedder,
	}
}

// Title returns the document title
func (v *VectorIndex) Title() string {
	return v.title
}

// Chunks returns the indexed chunks in document order
func (v *VectorIndex) Chunks() []models.Chunk {
	return v.chunks
}

// Len returns the number of indexed chunks
func (v *VectorIndex) Len() int {
	return len(v.chunks)
}

// Retrieve returns up to k chunks most similar to query, best first
func (v *VectorIndex) Retrieve(ctx context.Context, query string, k int) ([]models.ScoredChunk, error) {
	if len(v.chunks) == 0 || k <= 0 {
		return nil, nil
	}
	k = min(k, len(v.chunks))

	q, err := llm.EmbedOne(ctx, v.embedder, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := v.graph.Search(q, k)
	if err != nil {
		return nil, err
	}

	// HNSW is approximate; fall back to exact search if it came up short
	if len(hits) < k {
		return sqlite.SearchSimilar(q, v.chunks, v.vectors, k), nil
	}

	results := make([]models.ScoredChunk, 0, len(hits))
	for _, hit := range hits {
		i, ok := v.byID[hit.ID]
		if !ok {
			continue
		}
		results = append(results, models.ScoredChunk{Chunk: v.chunks[i], Score: float64(hit.Score)})
	}
	return results, nil
}

// Fingerprint identifies document content plus the chunking that produced its nodes
func Fingerprint(content string, chunkSize, chunkOverlap int) string {
	h := sha256.New()
	h.Write([]byte(content))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(chunkSize) + ":" + strconv.Itoa(chunkOverlap)))
	return hex.EncodeToString(h.Sum(nil))
}

// Builder builds or reloads per-document vector indexes
type Builder struct {
	embedder llm.Embedder
	logger   *slog.Logger
}

// NewBuilder creates a Builder
func NewBuilder(embedder llm.Embedder, logger *slog.Logger) *Builder {
	return &Builder{embedder: embedder, logger: logging.OrDefault(logger)}
}

// BuildResult reports how a vector index was obtained
type BuildResult struct {
	Index  *VectorIndex
	Reused bool
}

// BuildOrLoad returns the vector index for doc, reusing the persisted one in dir
// when its fingerprint and embedding model match. Load failures are logged and
// answered with a rebuild.
func (b *Builder) BuildOrLoad(ctx context.Context, doc *models.Document, fingerprint, dir string) (*BuildResult, error) {
	if len(doc.Chunks) == 0 {
		return nil, fmt.Errorf("document %s has no chunks", doc.Title)
	}

	store, err := storage.Open(dir)
	if err != nil && storage.Exists(dir) {
		b.logger.Warn("persisted index unreadable, rebuilding", "document", doc.Title, "error", err)
		if resetErr := storage.Reset(dir); resetErr != nil {
			return nil, fmt.Errorf("failed to reset %s: %w", dir, resetErr)
		}
		store, err = storage.Open(dir)
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := store.Close(); err != nil {
			b.logger.Warn("failed to close index storage", "dir", dir, "error", err)
		}
	}()

	if err := store.Lock(ctx); err != nil {
		return nil, err
	}

	if idx, ok := b.load(store, doc, fingerprint); ok {
		return &BuildResult{Index: idx, Reused: true}, nil
	}

	idx, err := b.build(ctx, store, doc, fingerprint)
	if err != nil {
		return nil, err
	}
	return &BuildResult{Index: idx, Reused: false}, nil
}

// load returns the persisted index if it is present, readable and current
func (b *Builder) load(store *storage.Storage, doc *models.Document, fingerprint string) (*VectorIndex, bool) {
	persisted, err := store.Load()
	if errors.Is(err, storage.ErrNotPersisted) {
		return nil, false
	}
	if err != nil {
		b.logger.Warn("failed to load persisted index, rebuilding", "document", doc.Title, "error", err)
		return nil, false
	}

	if persisted.Meta.ContentHash != fingerprint {
		b.logger.Info("document changed, rebuilding index", "document", doc.Title)
		return nil, false
	}
	if persisted.Meta.EmbeddingModel != b.embedder.ModelName() {
		b.logger.Info("embedding model changed, rebuilding index", "document", doc.Title,
			"was", persisted.Meta.EmbeddingModel, "now", b.embedder.ModelName())
		return nil, false
	}

	if persisted.GraphRebuilt {
		b.logger.Warn("vector graph unreadable, rebuilt from stored vectors", "document", doc.Title)
		if err := persisted.Graph.Save(store.GraphPath()); err != nil {
			b.logger.Warn("failed to re-save vector graph", "document", doc.Title, "error", err)
		}
	}

	b.logger.Debug("loaded persisted index", "document", doc.Title, "chunks", len(persisted.Chunks))
	return newVectorIndex(doc.Title, persisted.Chunks, persisted.Vectors, persisted.Graph, b.embedder), true
}

func (b *Builder) build(ctx context.Context, store *storage.Storage, doc *models.Document, fingerprint string) (*VectorIndex, error) {
	texts := make([]string, len(doc.Chunks))
	for i, c := range doc.Chunks {
		texts[i] = c.Content
	}

	vectors, err := b.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %s: %w", doc.Title, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(texts))
	}

	graph := storage.NewVectorStorage()
	if err := graph.Add(storage.ChunkIDs(doc.Chunks), vectors); err != nil {
		return nil, err
	}

	meta := &sqlite.IndexMeta{
		DocumentTitle:  doc.Title,
		SourcePath:     doc.Path,
		ContentHash:    fingerprint,
		EmbeddingModel: b.embedder.ModelName(),
		Dimensions:     graph.Dimensions(),
	}
	if err := store.Save(ctx, meta, doc.Chunks, vectors, graph); err != nil {
		return nil, err
	}

	b.logger.Info("built vector index", "document", doc.Title, "chunks", len(doc.Chunks))
	return newVectorIndex(doc.Title, doc.Chunks, vectors, graph, b.embedder), nil
}
