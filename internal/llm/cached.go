// ABOUTME: LRU cache in front of an Embedder
// ABOUTME: Repeated queries and tool descriptions skip the embedding backend
package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultEmbedCacheSize is the default number of embeddings to cache
const DefaultEmbedCacheSize = 1000

// CachedEmbedder wraps an Embedder with LRU caching
type CachedEmbedder struct {
	inner  Embedder
	cache  *lru.Cache[string, []float32]
	hits   atomic.Int64
	misses atomic.Int64
}

var _ Embedder = (*CachedEmbedder)(nil)

// NewCachedEmbedder creates a cached embedder wrapping the given embedder
func NewCachedEmbedder(inner Embedder, cacheSize int) *CachedEmbedder {
	if cacheSize <= 0 {
		cacheSize = DefaultEmbedCacheSize
	}
	cache, _ := lru.New[string, []float32](cacheSize)
	return &CachedEmbedder{
		inner: inner,
		cache: cache,
	}
}

// cacheKey keys on text and model so a model switch never reuses vectors
func (c *CachedEmbedder) cacheKey(text string) string {
	hash := sha256.Sum256([]byte(text + "\x00" + c.inner.ModelName()))
	return hex.EncodeToString(hash[:])
}

// Embed returns cached vectors where available and embeds the rest in one batch
func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	missIdx := make([]int, 0, len(texts))
	missTexts := make([]string, 0, len(texts))

	for i, text := range texts {
		if vec, ok := c.cache.Get(c.cacheKey(text)); ok {
			results[i] = vec
			c.hits.Add(1)
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return results, nil
	}
	c.misses.Add(int64(len(missTexts)))

	vectors, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missTexts) {
		return nil, ErrEmptyResponse
	}

	for j, idx := range missIdx {
		results[idx] = vectors[j]
		c.cache.Add(c.cacheKey(texts[idx]), vectors[j])
	}
	return results, nil
}

// ModelName returns the inner model identifier
func (c *CachedEmbedder) ModelName() string {
	return c.inner.ModelName()
}

// Stats returns cache hit and miss counts
func (c *CachedEmbedder) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
