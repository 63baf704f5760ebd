package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
)

// TaxonomyReviewer validates and finalizes the last snapshot.
// A stricter implementation may reject the snapshot; the orchestrator
// treats a review error as fatal.
type TaxonomyReviewer interface {
	Review(ctx context.Context, cfg domain.RunConfig, final domain.Snapshot) (domain.Snapshot, error)
}

// PassThroughReviewer accepts the final snapshot unchanged.
type PassThroughReviewer struct{}

// Review returns final.
func (PassThroughReviewer) Review(_ context.Context, _ domain.RunConfig, final domain.Snapshot) (domain.Snapshot, error) {
	return final, nil
}

// InvariantReviewer rejects snapshots that break taxonomy invariants:
// an empty set, more than MaxNumClusters categories, repeated names, or a
// category named like the fallback label.
type InvariantReviewer struct{}

// Review checks final and returns it unchanged when valid.
func (InvariantReviewer) Review(_ context.Context, cfg domain.RunConfig, final domain.Snapshot) (domain.Snapshot, error) {
	if len(final.Categories) == 0 {
		return domain.Snapshot{}, fmt.Errorf("%w: final taxonomy is empty", domain.ErrDiscoveryFailed)
	}
	if len(final.Categories) > cfg.MaxNumClusters {
		return domain.Snapshot{}, fmt.Errorf("%w: %d categories above cap %d",
			domain.ErrInvalidInput, len(final.Categories), cfg.MaxNumClusters)
	}

	seen := make(map[string]string, len(final.Categories))
	for _, c := range final.Categories {
		if strings.EqualFold(strings.TrimSpace(c.Name), domain.OtherCategory) {
			return domain.Snapshot{}, fmt.Errorf("%w: category %s uses the reserved name %q",
				domain.ErrInvalidInput, c.ID, domain.OtherCategory)
		}
		key := strings.ToLower(c.Name)
		if other, ok := seen[key]; ok {
			return domain.Snapshot{}, fmt.Errorf("%w: categories %s and %s share the name %q",
				domain.ErrInvalidInput, other, c.ID, c.Name)
		}
		seen[key] = c.ID
	}
	return final, nil
}
