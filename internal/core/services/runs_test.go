package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/taxonomist/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/taxonomist/internal/core/domain"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driven"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driving"
)

// mockPipeline implements driving.Pipeline.
type mockPipeline struct {
	result  *domain.RunResult
	err     error
	release chan struct{}
	calls   int
}

func (m *mockPipeline) Run(ctx context.Context, req driving.RunRequest) (*domain.RunResult, error) {
	m.calls++
	if req.Observer != nil {
		req.Observer.OnStage(domain.StageSampling)
	}
	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			return nil, &domain.StageError{Stage: domain.StageSampling, Err: ctx.Err()}
		}
	}
	return m.result, m.err
}

func storedRun(id string, started time.Time) *domain.RunResult {
	return &domain.RunResult{
		ID:       id,
		Taxonomy: supportTaxonomy,
		Metadata: domain.RunMetadata{
			FastModel: "openai/small",
			StartedAt: started,
		},
	}
}

func TestRunService_ExecuteSaves(t *testing.T) {
	store := memory.NewRunStore()
	pipeline := &mockPipeline{result: storedRun("r1", time.Now())}
	svc := NewRunService(pipeline, store, nil, nil)

	result, err := svc.Execute(context.Background(), driving.RunRequest{Config: testConfig()})
	require.NoError(t, err)
	assert.Equal(t, "r1", result.ID)

	got, err := svc.Get(context.Background(), "r1")
	require.NoError(t, err)
	assert.Same(t, result, got)
}

func TestRunService_ExecuteError(t *testing.T) {
	store := memory.NewRunStore()
	boom := errors.New("pipeline failed")
	svc := NewRunService(&mockPipeline{err: boom}, store, nil, nil)

	_, err := svc.Execute(context.Background(), driving.RunRequest{})
	assert.ErrorIs(t, err, boom)

	runs, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRunService_ListGetDelete(t *testing.T) {
	store := memory.NewRunStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, storedRun("old", base)))
	require.NoError(t, store.Save(ctx, storedRun("new", base.Add(time.Hour))))
	svc := NewRunService(&mockPipeline{}, store, nil, nil)

	runs, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].ID)

	require.NoError(t, svc.Delete(ctx, "old"))
	_, err = svc.Get(ctx, "old")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRunService_WithoutStore(t *testing.T) {
	ctx := context.Background()
	svc := NewRunService(&mockPipeline{result: storedRun("r1", time.Now())}, nil, nil, nil)

	result, err := svc.Execute(ctx, driving.RunRequest{})
	require.NoError(t, err)
	assert.Equal(t, "r1", result.ID)

	runs, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)
	_, err = svc.Get(ctx, "r1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "r1"), domain.ErrNotFound)
}

func TestRunService_LabelText(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRunStore()
	require.NoError(t, store.Save(ctx, storedRun("r1", time.Now())))
	llm := &mockLLM{label: labelByKeyword(map[string]string{"parcel": "2"})}
	models := &mockModels{llms: map[string]driven.LLMService{"openai/small": llm}}
	svc := NewRunService(&mockPipeline{}, store, models, nil)

	doc, err := svc.LabelText(ctx, "r1", "  my parcel is late  ")
	require.NoError(t, err)
	assert.Equal(t, "Shipping", doc.Category)
	assert.Equal(t, "mentions parcel", doc.Explanation)
	assert.Equal(t, domain.LabelSourceLLM, doc.LabeledBy)
	assert.Equal(t, "my parcel is late", doc.Content)

	doc, err = svc.LabelText(ctx, "r1", "what is this")
	require.NoError(t, err)
	assert.Equal(t, domain.OtherCategory, doc.Category)
	assert.Equal(t, domain.LabelSourceFallback, doc.LabeledBy)
}

func TestRunService_LabelTextErrors(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRunStore()
	require.NoError(t, store.Save(ctx, storedRun("r1", time.Now())))
	require.NoError(t, store.Save(ctx, &domain.RunResult{ID: "empty"}))

	svc := NewRunService(&mockPipeline{}, store, &mockModels{}, nil)

	_, err := svc.LabelText(ctx, "r1", "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.LabelText(ctx, "missing", "text")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.LabelText(ctx, "empty", "text")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.LabelText(ctx, "r1", "text")
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)

	_, err = NewRunService(&mockPipeline{}, store, nil, nil).LabelText(ctx, "r1", "text")
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}
