package embedder

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/hupe1980/voiceagent/core"
	"github.com/hupe1980/voiceagent/memory"
)

// DefaultDimensions is the vector size of the hashing embedder.
const DefaultDimensions = 384

var _ core.Embedder = (*Hashing)(nil)

// Hashing embeds text by hashing its terms into a fixed number of buckets.
// Identical texts always produce identical unit vectors, and texts that share
// terms point in similar directions.
type Hashing struct {
	dims int
}

// NewHashing creates a hashing embedder. dims <= 0 selects DefaultDimensions.
func NewHashing(dims int) *Hashing {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &Hashing{dims: dims}
}

// Dimensions returns the vector size.
func (h *Hashing) Dimensions() int { return h.dims }

// Embed returns a unit vector for text. Text without usable terms maps to a
// fixed unit vector so downstream cosine math never sees a zero vector.
func (h *Hashing) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float64, h.dims)
	for term, tf := range memory.Terms(text) {
		hash := fnv.New64a()
		_, _ = hash.Write([]byte(term))
		sum := hash.Sum64()
		idx := int(sum % uint64(h.dims))
		// the sign bit spreads collisions in both directions
		if sum&(1<<63) != 0 {
			vec[idx] -= tf
		} else {
			vec[idx] += tf
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	out := make([]float32, h.dims)
	if norm == 0 {
		out[0] = 1
		return out, nil
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out, nil
}
