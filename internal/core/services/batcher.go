package services

import (
	"fmt"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
)

// IndexRange is a half-open range [Start, End) over the sampled documents.
type IndexRange struct {
	Start int
	End   int
}

// Len returns the number of indices in the range.
func (r IndexRange) Len() int {
	return r.End - r.Start
}

// MakeBatches partitions [0, count) into contiguous ranges of batchSize.
// The last range may be shorter. The result is deterministic.
func MakeBatches(count, batchSize int) ([]IndexRange, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive, got %d", domain.ErrConfiguration, batchSize)
	}
	if count <= 0 {
		return nil, nil
	}

	batches := make([]IndexRange, 0, (count+batchSize-1)/batchSize)
	for start := 0; start < count; start += batchSize {
		batches = append(batches, IndexRange{Start: start, End: min(start+batchSize, count)})
	}
	return batches, nil
}
