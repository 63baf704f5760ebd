package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
)

func TestPassThroughReviewer(t *testing.T) {
	snap := domain.Snapshot{Batch: 3, Categories: supportTaxonomy}

	got, err := PassThroughReviewer{}.Review(context.Background(), testConfig(), snap)
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestInvariantReviewer(t *testing.T) {
	cfg := testConfig()
	cfg.MaxNumClusters = 2

	tests := []struct {
		name       string
		categories domain.Taxonomy
		want       error
	}{
		{"valid", supportTaxonomy, nil},
		{"empty", nil, domain.ErrDiscoveryFailed},
		{"over cap", append(supportTaxonomy.Clone(), domain.Category{ID: "3", Name: "Misc"}), domain.ErrInvalidInput},
		{"reserved name", domain.Taxonomy{{ID: "1", Name: "Billing"}, {ID: "2", Name: "other"}}, domain.ErrInvalidInput},
		{"duplicate names", domain.Taxonomy{{ID: "1", Name: "Billing"}, {ID: "2", Name: "billing"}}, domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := domain.Snapshot{Batch: 1, Categories: tt.categories}
			got, err := InvariantReviewer{}.Review(context.Background(), cfg, snap)
			if tt.want == nil {
				require.NoError(t, err)
				assert.Equal(t, snap, got)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
