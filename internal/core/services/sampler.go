package services

import (
	"math/rand/v2"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
)

// Sample returns sampleSize documents chosen uniformly without replacement.
// When sampleSize is non-positive or not smaller than the corpus, it
// returns a copy of every document in original order. The input slice is
// never reordered or aliased.
func Sample(docs []domain.Document, sampleSize int, rng *rand.Rand) []domain.Document {
	out := make([]domain.Document, len(docs))
	copy(out, docs)

	if sampleSize <= 0 || sampleSize >= len(docs) {
		return out
	}
	if rng == nil {
		rng = newRand(0)
	}

	// Partial Fisher-Yates: only the first sampleSize positions are needed.
	for i := 0; i < sampleSize; i++ {
		j := i + rng.IntN(len(out)-i)
		out[i], out[j] = out[j], out[i]
	}
	return out[:sampleSize:sampleSize]
}

// newRand returns a generator seeded with seed, or randomly when seed is zero.
func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // sampling, not security
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1)) //nolint:gosec // sampling, not security
}
