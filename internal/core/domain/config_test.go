package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRunConfig_IsValid(t *testing.T) {
	cfg := DefaultRunConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, PathDiscovery, cfg.Path())
}

func TestRunConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RunConfig)
	}{
		{"zero batch size", func(c *RunConfig) { c.BatchSize = 0 }},
		{"negative sample size", func(c *RunConfig) { c.SampleSize = -1 }},
		{"zero max clusters", func(c *RunConfig) { c.MaxNumClusters = 0 }},
		{"max clusters above limit", func(c *RunConfig) { c.MaxNumClusters = MaxNumClustersLimit + 1 }},
		{"zero concurrency", func(c *RunConfig) { c.Concurrency = 0 }},
		{"negative rate", func(c *RunConfig) { c.RequestsPerSecond = -1 }},
		{"unknown policy", func(c *RunConfig) { c.RevisionPolicy = "ignore" }},
		{"blank use case", func(c *RunConfig) { c.UseCase = "  " }},
		{"classifier threshold", func(c *RunConfig) {
			c.Classifier.Enabled = true
			c.Classifier.ConfidenceThreshold = 1.5
		}},
		{"predefined duplicate ids", func(c *RunConfig) {
			c.PredefinedTaxonomy = Taxonomy{{ID: "1", Name: "A"}, {ID: "1", Name: "B"}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultRunConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			assert.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfiguration))
		})
	}
}

func TestRunConfig_ZeroSampleSizeMeansAll(t *testing.T) {
	cfg := DefaultRunConfig()
	cfg.SampleSize = 0
	assert.NoError(t, cfg.Validate())
}

func TestRunConfig_PredefinedSelectsDirectPath(t *testing.T) {
	cfg := DefaultRunConfig()
	cfg.UseCase = ""
	cfg.PredefinedTaxonomy = NewTaxonomy([]Category{{Name: "Account"}})

	assert.Equal(t, PathDirectLabel, cfg.Path())
	assert.NoError(t, cfg.Validate())
	assert.NotContains(t, cfg.Path().Stages(), StageDiscovering)
}

func TestRunConfig_PredefinedTaxonomyIgnoresCap(t *testing.T) {
	cfg := DefaultRunConfig()
	cfg.PredefinedTaxonomy = NewTaxonomy([]Category{
		{Name: "Billing"}, {Name: "Shipping"}, {Name: "Returns"},
		{Name: "Account"}, {Name: "Technical"}, {Name: "Feedback"},
	})
	require.Greater(t, len(cfg.PredefinedTaxonomy), cfg.MaxNumClusters)

	assert.NoError(t, cfg.Validate())

	cfg.PredefinedTaxonomy[5].ID = "1"
	assert.ErrorIs(t, cfg.Validate(), ErrConfiguration)
}
