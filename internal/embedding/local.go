package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// Local produces deterministic hashed embeddings without external services.
// Useful for offline bulk loads and tests; identical text always yields the
// identical vector.
type Local struct {
	dim int
}

// NewLocal creates a local hash embedder with the given dimensionality.
func NewLocal(dim int) *Local {
	if dim <= 0 {
		dim = 1536
	}
	return &Local{dim: dim}
}

func (l *Local) ModelName() string { return "local-fnv-hash" }

func (l *Local) Dimension() int { return l.dim }

// Embed hashes each whitespace token into a bucket and L2-normalizes the
// resulting histogram.
func (l *Local) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, l.dim)
	words := strings.Fields(text)
	if len(words) == 0 {
		return vec, nil
	}
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		idx := int(h.Sum32()) % l.dim
		if idx < 0 {
			idx = -idx
		}
		vec[idx] += 1.0
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		n := float32(1.0 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= n
		}
	}
	return vec, nil
}
