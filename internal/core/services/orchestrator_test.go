package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driven"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driving"
)

func newTestOrchestrator(models *mockModels) *Orchestrator {
	o := NewOrchestrator(models, nil)
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	calls := 0
	o.now = func() time.Time {
		calls++
		return start.Add(time.Duration(calls-1) * time.Second)
	}
	o.newID = func() string { return "run-test" }
	return o
}

func TestOrchestrator_SupportScenario(t *testing.T) {
	cfg := testConfig()
	cfg.MaxNumClusters = 2
	cfg.BatchSize = 3
	llm := &mockLLM{
		taxonomy: func(int, string) (string, error) {
			return clusterTable("Account", "Logins and passwords", "Technical", "Bugs and crashes"), nil
		},
		label: labelByKeyword(map[string]string{"password": "1", "crashes": "2"}),
	}
	obs := &recordingObserver{}

	result, err := newTestOrchestrator(modelsFor(cfg, llm)).Run(context.Background(), driving.RunRequest{
		Documents: docs("Reset my password", "Billing question", "App crashes on launch"),
		Config:    cfg,
		Observer:  obs,
	})
	require.NoError(t, err)

	require.Len(t, result.Documents, 3)
	assert.Equal(t, "Account", result.Documents[0].Category)
	assert.Equal(t, domain.OtherCategory, result.Documents[1].Category)
	assert.Equal(t, "Technical", result.Documents[2].Category)

	meta := result.Metadata
	assert.Equal(t, 3, meta.LLMLabeledCount)
	assert.Equal(t, 1, meta.SkippedDocumentCount)
	assert.Zero(t, meta.ClassifierLabeledCount)
	assert.Equal(t, domain.PathDiscovery, meta.Path)
	assert.Equal(t, 3, meta.NumDocuments)
	assert.Equal(t, 2, meta.NumCategories)
	assert.Equal(t, 3, meta.SampleSize)
	assert.Equal(t, 1, meta.NumBatches)
	assert.Equal(t, 1, meta.Count("Account"))
	assert.Equal(t, 1, meta.Count(domain.OtherCategory))
	assert.Len(t, meta.Warnings, 1)
	assert.NotEmpty(t, meta.StatusLog)

	assert.Equal(t, "run-test", result.ID)
	assert.Equal(t, []string{"Account", "Technical"}, result.Taxonomy.Names())
	require.Len(t, result.Snapshots, 1)
	assert.Equal(t, 1, result.Snapshots[0].Batch)
	assert.Equal(t, 1, llm.taxonomyCalls())

	assert.Equal(t, []domain.Stage{
		domain.StageSampling,
		domain.StageSummarizing,
		domain.StageDiscovering,
		domain.StageReview,
		domain.StageFinalized,
		domain.StageLabeling,
		domain.StageCompleted,
	}, obs.stages)
}

func TestOrchestrator_LabelsFullCorpus(t *testing.T) {
	cfg := testConfig()
	cfg.SampleSize = 10
	cfg.BatchSize = 4
	llm := &mockLLM{
		taxonomy: func(int, string) (string, error) { return clusterTable("Notes", "Everything"), nil },
	}
	contents := make([]string, 50)
	for i := range contents {
		contents[i] = fmt.Sprintf("note number %d", i)
	}

	result, err := newTestOrchestrator(modelsFor(cfg, llm)).Run(context.Background(), driving.RunRequest{
		Documents: docs(contents...),
		Config:    cfg,
	})
	require.NoError(t, err)

	require.Len(t, result.Documents, 50)
	summarized := 0
	for i, d := range result.Documents {
		assert.Equal(t, fmt.Sprintf("d%d", i+1), d.ID, "corpus order is kept")
		assert.Equal(t, "Notes", d.Category)
		if d.Summary != "" {
			summarized++
		}
	}
	assert.Equal(t, 10, summarized)
	assert.Equal(t, 10, llm.summaryCalls)
	assert.Equal(t, 50, llm.labelCalls)
	assert.Equal(t, 3, llm.taxonomyCalls())
	assert.Len(t, result.Snapshots, 3)
	assert.Equal(t, 50, result.Metadata.LLMLabeledCount)
}

func TestOrchestrator_PredefinedTaxonomy(t *testing.T) {
	cfg := testConfig()
	cfg.PredefinedTaxonomy = domain.Taxonomy{
		{ID: "10", Name: "Billing", Description: "Money"},
		{ID: "20", Name: "Shipping", Description: "Parcels"},
	}
	llm := &mockLLM{label: labelByKeyword(map[string]string{"refund": "10", "parcel": "20"})}
	models := &mockModels{llms: map[string]driven.LLMService{cfg.FastModel: llm}}
	obs := &recordingObserver{}

	result, err := newTestOrchestrator(models).Run(context.Background(), driving.RunRequest{
		Documents: docs("refund please", "parcel late"),
		Config:    cfg,
		Observer:  obs,
	})
	require.NoError(t, err)

	assert.Zero(t, llm.taxonomyCalls())
	assert.Zero(t, llm.summaryCalls)
	assert.Equal(t, []string{cfg.FastModel}, models.requested, "the taxonomy model is never resolved")

	assert.Equal(t, "Billing", result.Documents[0].Category)
	assert.Equal(t, "Shipping", result.Documents[1].Category)
	assert.Equal(t, domain.PathDirectLabel, result.Metadata.Path)
	assert.Equal(t, cfg.PredefinedTaxonomy, result.Taxonomy)
	require.Len(t, result.Snapshots, 1)
	assert.Equal(t, 0, result.Snapshots[0].Batch)
	assert.NotContains(t, obs.stages, domain.StageDiscovering)
	assert.Contains(t, obs.stages, domain.StageLabeling)
}

func TestOrchestrator_PredefinedTaxonomyAboveCap(t *testing.T) {
	cfg := testConfig()
	cfg.MaxNumClusters = 5
	cfg.PredefinedTaxonomy = domain.NewTaxonomy([]domain.Category{
		{Name: "Billing"}, {Name: "Shipping"}, {Name: "Returns"},
		{Name: "Account"}, {Name: "Technical"}, {Name: "Feedback"},
	})
	llm := &mockLLM{label: labelByKeyword(map[string]string{"refund": "1", "broken": "5"})}
	models := &mockModels{llms: map[string]driven.LLMService{cfg.FastModel: llm}}

	result, err := newTestOrchestrator(models).Run(context.Background(), driving.RunRequest{
		Documents: docs("refund please", "app is broken"),
		Config:    cfg,
	})
	require.NoError(t, err)

	assert.Len(t, result.Taxonomy, 6)
	assert.Equal(t, "Billing", result.Documents[0].Category)
	assert.Equal(t, "Technical", result.Documents[1].Category)
}

func TestOrchestrator_FailsBeforeAnyCall(t *testing.T) {
	valid := testConfig()

	invalid := testConfig()
	invalid.BatchSize = 0

	tests := []struct {
		name   string
		cfg    domain.RunConfig
		docs   []domain.Document
		models *mockModels
		want   error
	}{
		{"invalid config", invalid, docs("a"), modelsFor(invalid, &mockLLM{}), domain.ErrConfiguration},
		{"empty corpus", valid, nil, modelsFor(valid, &mockLLM{}), domain.ErrEmptyCorpus},
		{"unknown model", valid, docs("a"), &mockModels{}, domain.ErrLLMUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestOrchestrator(tt.models).Run(context.Background(), driving.RunRequest{
				Documents: tt.docs,
				Config:    tt.cfg,
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			stage, ok := domain.StageOf(err)
			require.True(t, ok)
			assert.Equal(t, domain.StageNotStarted, stage)
		})
	}
}

func TestOrchestrator_NilModelProvider(t *testing.T) {
	_, err := NewOrchestrator(nil, nil).Run(context.Background(), driving.RunRequest{
		Documents: docs("a"),
		Config:    testConfig(),
	})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestOrchestrator_ClassifierUnavailable(t *testing.T) {
	cfg := classifierConfig()
	_, err := newTestOrchestrator(modelsFor(cfg, &mockLLM{})).Run(context.Background(), driving.RunRequest{
		Documents: docs("a"),
		Config:    cfg,
	})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestOrchestrator_Cancelled(t *testing.T) {
	cfg := testConfig()
	ctx, cancel := context.WithCancel(context.Background())
	llm := &mockLLM{summarize: func(string) (string, error) {
		cancel()
		return "", ctx.Err()
	}}

	_, err := newTestOrchestrator(modelsFor(cfg, llm)).Run(ctx, driving.RunRequest{
		Documents: docs("a", "b", "c"),
		Config:    cfg,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	stage, _ := domain.StageOf(err)
	assert.Equal(t, domain.StageSummarizing, stage)
	assert.Zero(t, llm.taxonomyCalls())
}

func TestOrchestrator_RevisionFailureSurfacesStage(t *testing.T) {
	cfg := testConfig()
	cfg.BatchSize = 1
	cfg.RevisionPolicy = domain.RevisionPolicyFail
	llm := &mockLLM{taxonomy: func(call int, _ string) (string, error) {
		if call == 1 {
			return clusterTable("A", "a"), nil
		}
		return "<cluster_table></cluster_table>", nil
	}}

	_, err := newTestOrchestrator(modelsFor(cfg, llm)).Run(context.Background(), driving.RunRequest{
		Documents: docs("a", "b"),
		Config:    cfg,
	})

	assert.ErrorIs(t, err, domain.ErrRevisionFailed)
	stage, _ := domain.StageOf(err)
	assert.Equal(t, domain.StageRevising, stage)
	assert.Zero(t, llm.labelCalls)
}

func TestOrchestrator_CustomReviewer(t *testing.T) {
	cfg := testConfig()
	llm := &mockLLM{taxonomy: func(int, string) (string, error) {
		return clusterTable("Same", "x", "same", "y"), nil
	}}
	o := newTestOrchestrator(modelsFor(cfg, llm))
	o.SetReviewer(InvariantReviewer{})

	_, err := o.Run(context.Background(), driving.RunRequest{Documents: docs("a"), Config: cfg})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	stage, _ := domain.StageOf(err)
	assert.Equal(t, domain.StageReview, stage)
}

func TestOrchestrator_ClassifierPath(t *testing.T) {
	cfg := classifierConfig()
	cfg.SampleSize = 10
	cfg.PredefinedTaxonomy = supportTaxonomy
	llm := &mockLLM{label: labelByKeyword(map[string]string{"refund": "1", "parcel": "2"})}
	models := modelsFor(cfg, llm)
	models.embedder = supportEmbedder()

	// Any 10 of these 12 hold both categories.
	corpus := []domain.Document{}
	for i, c := range []string{
		"refund a", "parcel a", "refund b", "parcel b", "refund c", "parcel c",
		"refund d", "parcel d", "refund e", "parcel e", "refund f", "parcel f",
	} {
		corpus = append(corpus, domain.Document{ID: fmt.Sprintf("d%02d", i), Content: c})
	}

	result, err := newTestOrchestrator(models).Run(context.Background(), driving.RunRequest{
		Documents: corpus,
		Config:    cfg,
	})
	require.NoError(t, err)

	meta := result.Metadata
	assert.Equal(t, 10, meta.LLMLabeledCount)
	assert.Equal(t, 2, meta.ClassifierLabeledCount)
	require.NotNil(t, meta.ClassifierMetrics)
	assert.Equal(t, 10, llm.labelCalls)

	require.Len(t, result.Documents, 12)
	byClassifier := 0
	for i, d := range result.Documents {
		assert.Equal(t, corpus[i].ID, d.ID)
		want := "Billing"
		if strings.HasPrefix(d.Content, "parcel") {
			want = "Shipping"
		}
		assert.Equal(t, want, d.Category, d.ID)
		if d.LabeledBy == domain.LabelSourceClassifier {
			byClassifier++
		}
	}
	assert.Equal(t, 2, byClassifier)
}

func TestOrchestrator_ConcurrentRunsAreIndependent(t *testing.T) {
	const runs = 4
	shared := &mockLLM{taxonomy: func(int, string) (string, error) {
		return clusterTable("A", "a", "B", "b"), nil
	}}
	models := &mockModels{llms: map[string]driven.LLMService{"openai/big": shared}}
	for i := 0; i < runs; i++ {
		answer := "<category_id>1</category_id>"
		if i%2 == 1 {
			answer = "nothing"
		}
		models.llms[fmt.Sprintf("openai/fast-%d", i)] = &mockLLM{
			label: func(string) (string, error) { return answer, nil },
		}
	}
	o := NewOrchestrator(models, nil)

	var wg sync.WaitGroup
	results := make([]*domain.RunResult, runs)
	errs := make([]error, runs)
	for i := 0; i < runs; i++ {
		cfg := testConfig()
		cfg.FastModel = fmt.Sprintf("openai/fast-%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = o.Run(context.Background(), driving.RunRequest{
				Documents: docs("x", "y", "z"),
				Config:    cfg,
			})
		}()
	}
	wg.Wait()

	for i, r := range results {
		require.NoError(t, errs[i])
		skipped := 0
		if i%2 == 1 {
			skipped = 3
		}
		assert.Equal(t, 3, r.Metadata.LLMLabeledCount)
		assert.Equal(t, skipped, r.Metadata.SkippedDocumentCount)
		assert.Len(t, r.Metadata.Warnings, skipped)
	}
	assert.Equal(t, runs, shared.taxonomyCalls())
}
