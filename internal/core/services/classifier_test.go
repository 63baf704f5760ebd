package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
)

func classifierConfig() domain.RunConfig {
	cfg := testConfig()
	cfg.Classifier.Enabled = true
	cfg.Classifier.Neighbors = 3
	cfg.Classifier.ConfidenceThreshold = 0.9
	return cfg
}

func supportEmbedder() *mockEmbedding {
	return &mockEmbedding{
		vectors: map[string][]float32{
			"refund": {1, 0},
			"parcel": {0, 1},
		},
		fallback: []float32{1, 1},
	}
}

// labeledExamples alternates categories so ties between equally similar
// neighbours are mixed.
func labeledExamples() []domain.Document {
	var out []domain.Document
	for i, c := range []string{"refund", "parcel", "refund", "parcel", "refund", "parcel"} {
		category := "Billing"
		if c == "parcel" {
			category = "Shipping"
		}
		out = append(out, domain.Document{
			ID:        string(rune('a' + i)),
			Content:   c + " example",
			Category:  category,
			LabeledBy: domain.LabelSourceLLM,
		})
	}
	return out
}

func TestClassifier_Extend(t *testing.T) {
	rc := NewRunContext(classifierConfig(), nil)
	rest := []domain.Document{
		{ID: "r1", Content: "another refund"},
		{ID: "r2", Content: "hello there"},
		{ID: "r3", Content: "lost parcel"},
	}

	res, err := NewClassifier(supportEmbedder()).Extend(context.Background(), rc, labeledExamples(), rest, supportTaxonomy)
	require.NoError(t, err)

	require.Len(t, res.Classified, 2)
	assert.Equal(t, "r1", res.Classified[0].ID)
	assert.Equal(t, "Billing", res.Classified[0].Category)
	assert.Equal(t, domain.LabelSourceClassifier, res.Classified[0].LabeledBy)
	assert.Equal(t, "r3", res.Classified[1].ID)
	assert.Equal(t, "Shipping", res.Classified[1].Category)

	require.Len(t, res.Deferred, 1)
	assert.Equal(t, "r2", res.Deferred[0].ID)
	assert.Empty(t, res.Deferred[0].Category)

	require.NotNil(t, res.Metrics)
	assert.Equal(t, 6, res.Metrics.TrainSize+res.Metrics.TestSize)
	assert.Equal(t, 1, res.Metrics.TestSize)
	assert.InDelta(t, 1.0, res.Metrics.TrainAccuracy, 1e-9)

	assert.Equal(t, 2, rc.Stats().ClassifierLabeled)
}

func TestClassifier_NeedsTwoCategories(t *testing.T) {
	rc := NewRunContext(classifierConfig(), nil)
	labeled := []domain.Document{
		{ID: "a", Content: "refund", Category: "Billing", LabeledBy: domain.LabelSourceLLM},
		{ID: "b", Content: "parcel", Category: domain.OtherCategory, LabeledBy: domain.LabelSourceFallback},
	}
	rest := docs("x", "y")
	embedder := supportEmbedder()

	res, err := NewClassifier(embedder).Extend(context.Background(), rc, labeled, rest, supportTaxonomy)
	require.NoError(t, err)

	assert.Empty(t, res.Classified)
	assert.Equal(t, rest, res.Deferred)
	assert.Nil(t, res.Metrics)
	assert.Len(t, rc.Warnings(), 1)
	assert.Zero(t, embedder.calls)
}

func TestClassifier_EmbeddingError(t *testing.T) {
	rc := NewRunContext(classifierConfig(), nil)
	boom := errors.New("embedding quota")
	embedder := &mockEmbedding{err: boom}

	_, err := NewClassifier(embedder).Extend(context.Background(), rc, labeledExamples(), docs("x"), supportTaxonomy)

	assert.ErrorIs(t, err, boom)
}

func TestClassifier_EmbedsInChunks(t *testing.T) {
	rc := NewRunContext(classifierConfig(), nil)
	embedder := supportEmbedder()
	many := make([]domain.Document, embedChunkSize+1)
	for i := range many {
		many[i] = domain.Document{ID: string(rune('A' + i%26)), Content: "refund"}
	}

	vecs, err := NewClassifier(embedder).embed(context.Background(), rc, many)
	require.NoError(t, err)

	assert.Len(t, vecs, embedChunkSize+1)
	assert.Equal(t, 2, embedder.calls)
	assert.Equal(t, []float32{1, 0}, vecs[embedChunkSize])
}
