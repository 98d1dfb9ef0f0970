// ABOUTME: Approximate nearest-neighbour graph over chunk embeddings
// ABOUTME: Backed by coder/hnsw with a gob sidecar mapping graph keys to chunk IDs
package storage

import (
	"bufio"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"
)

// ErrDimensionMismatch is returned when a vector does not match the graph
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// VectorHit is one nearest-neighbour result
type VectorHit struct {
	ID    string
	Score float32
}

// VectorStorage manages an HNSW graph of normalized vectors
type VectorStorage struct {
	mu         sync.RWMutex
	graph      *hnsw.Graph[uint64]
	ids        []string
	dimensions int
}

// vectorMetadata is persisted next to the graph export
type vectorMetadata struct {
	IDs        []string
	Dimensions int
}

// NewVectorStorage creates an empty graph using cosine distance
func NewVectorStorage() *VectorStorage {
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = 16
	graph.EfSearch = 32
	graph.Ml = 0.25
	return &VectorStorage{graph: graph}
}

// Add inserts vectors under the given IDs in order
func (vs *VectorStorage) Add(ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}

	vs.mu.Lock()
	defer vs.mu.Unlock()

	for i, id := range ids {
		if vs.dimensions == 0 {
			vs.dimensions = len(vectors[i])
		}
		if len(vectors[i]) != vs.dimensions {
			return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, vs.dimensions, len(vectors[i]))
		}

		key := uint64(len(vs.ids))
		vs.graph.Add(hnsw.MakeNode(key, normalized(vectors[i])))
		vs.ids = append(vs.ids, id)
	}
	return nil
}

// Search returns up to k nearest IDs, best first
func (vs *VectorStorage) Search(query []float32, k int) ([]VectorHit, error) {
	vs.mu.RLock()
	defer vs.mu.RUnlock()

	if vs.graph.Len() == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != vs.dimensions {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, vs.dimensions, len(query))
	}

	q := normalized(query)
	nodes := vs.graph.Search(q, k)

	hits := make([]VectorHit, 0, len(nodes))
	for _, node := range nodes {
		if node.Key >= uint64(len(vs.ids)) {
			continue
		}
		// Cosine distance ranges 0..2
		distance := vs.graph.Distance(q, node.Value)
		hits = append(hits, VectorHit{
			ID:    vs.ids[node.Key],
			Score: 1 - distance,
		})
	}
	return hits, nil
}

// Len returns the number of vectors in the graph
func (vs *VectorStorage) Len() int {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	return len(vs.ids)
}

// Dimensions returns the vector dimension, zero when empty
func (vs *VectorStorage) Dimensions() int {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	return vs.dimensions
}

// Save exports the graph and its metadata using temp file + rename
func (vs *VectorStorage) Save(path string) error {
	vs.mu.RLock()
	defer vs.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	err := writeAtomic(path, func(f *os.File) error {
		return vs.graph.Export(f)
	})
	if err != nil {
		return fmt.Errorf("failed to export graph: %w", err)
	}

	meta := vectorMetadata{IDs: vs.ids, Dimensions: vs.dimensions}
	err = writeAtomic(path+".meta", func(f *os.File) error {
		return gob.NewEncoder(f).Encode(meta)
	})
	if err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}
	return nil
}

// Load replaces the graph with the one stored at path
func (vs *VectorStorage) Load(path string) error {
	metaFile, err := os.Open(path + ".meta")
	if err != nil {
		return fmt.Errorf("failed to open metadata: %w", err)
	}
	defer func() { _ = metaFile.Close() }()

	var meta vectorMetadata
	if err := gob.NewDecoder(metaFile).Decode(&meta); err != nil {
		return fmt.Errorf("failed to decode metadata: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open graph: %w", err)
	}
	defer func() { _ = file.Close() }()

	fresh := NewVectorStorage()
	// Import requires an io.ByteReader
	if err := fresh.graph.Import(bufio.NewReader(file)); err != nil {
		return fmt.Errorf("failed to import graph: %w", err)
	}
	if fresh.graph.Len() != len(meta.IDs) {
		return fmt.Errorf("graph has %d nodes but metadata lists %d ids", fresh.graph.Len(), len(meta.IDs))
	}

	vs.mu.Lock()
	defer vs.mu.Unlock()
	vs.graph = fresh.graph
	vs.ids = meta.IDs
	vs.dimensions = meta.Dimensions
	return nil
}

func writeAtomic(path string, write func(f *os.File) error) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// normalized returns a unit-length copy of v
func normalized(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)

	var sum float64
	for _, x := range out {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return out
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range out {
		out[i] *= inv
	}
	return out
}
