package embedder

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"

	"github.com/hupe1980/voiceagent/core"
)

var _ core.Embedder = (*Cached)(nil)

// CacheOptions sizes the embedding cache.
type CacheOptions struct {
	// MaxCost is the capacity in float32 elements.
	MaxCost     int64
	NumCounters int64
}

// DefaultCacheOptions holds roughly ten thousand 384-dimensional vectors.
var DefaultCacheOptions = CacheOptions{
	MaxCost:     10_000 * DefaultDimensions,
	NumCounters: 100_000,
}

// Cached memoizes another embedder. Repeated utterances and memory contents
// skip the upstream call.
type Cached struct {
	next  core.Embedder
	cache *ristretto.Cache
}

// NewCached wraps next with a ristretto cache. Close releases the cache.
func NewCached(next core.Embedder, optFns ...func(o *CacheOptions)) (*Cached, error) {
	opts := DefaultCacheOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: opts.NumCounters,
		MaxCost:     opts.MaxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding cache: %w", err)
	}
	return &Cached{next: next, cache: cache}, nil
}

// Embed returns the cached vector for text or computes and stores it.
// Callers must not modify the returned slice.
func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.cache.Get(text); ok {
		if vec, ok := v.([]float32); ok {
			return vec, nil
		}
	}
	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(text, vec, int64(len(vec)))
	return vec, nil
}

// Wait blocks until pending cache writes are visible.
func (c *Cached) Wait() { c.cache.Wait() }

// Close stops the cache's background goroutines.
func (c *Cached) Close() { c.cache.Close() }
