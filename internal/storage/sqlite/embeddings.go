// ABOUTME: Vector encoding and exact cosine similarity search
// ABOUTME: Vectors are stored as little-endian float32 BLOBs
package sqlite

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/harper/orpheo/internal/models"
)

// vectorToBlob converts a float32 slice to binary blob
func vectorToBlob(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// blobToVector converts a binary blob to float32 slice
func blobToVector(blob []byte) []float32 {
	count := len(blob) / 4
	vector := make([]float32, count)
	for i := 0; i < count; i++ {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector
}

// CosineSimilarity calculates cosine similarity between two vectors
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// SearchSimilar performs exact cosine similarity search over in-memory vectors
func SearchSimilar(query []float32, chunks []models.Chunk, vectors [][]float32, maxResults int) []models.ScoredChunk {
	results := make([]models.ScoredChunk, 0, len(chunks))
	for i, c := range chunks {
		results = append(results, models.ScoredChunk{
			Chunk: c,
			Score: CosineSimilarity(query, vectors[i]),
		})
	}

	// Sort by similarity descending, document order on ties
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}
