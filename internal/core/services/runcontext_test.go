package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
)

func TestRunContext_Stages(t *testing.T) {
	obs := &recordingObserver{}
	rc := NewRunContext(testConfig(), obs)
	assert.Equal(t, domain.StageNotStarted, rc.Stage())

	rc.Enter(domain.StageSampling)
	rc.Enter(domain.StageSummarizing)

	assert.Equal(t, domain.StageSummarizing, rc.Stage())
	assert.Equal(t, []domain.Stage{domain.StageSampling, domain.StageSummarizing}, obs.stages)

	err := rc.Fail(domain.ErrEmptyCorpus)
	assert.ErrorIs(t, err, domain.ErrEmptyCorpus)
	stage, ok := domain.StageOf(err)
	require.True(t, ok)
	assert.Equal(t, domain.StageSummarizing, stage)
}

func TestRunContext_Logs(t *testing.T) {
	obs := &recordingObserver{}
	rc := NewRunContext(testConfig(), obs)

	rc.Warn("batch %d retained", 2)
	rc.Status("processed %d", 3)

	assert.Equal(t, []string{"batch 2 retained"}, rc.Warnings())
	assert.Equal(t, []string{"processed 3"}, rc.StatusLog())
	assert.Equal(t, []string{"processed 3"}, obs.statuses)

	// Returned slices are copies.
	rc.Warnings()[0] = "changed"
	assert.Equal(t, "batch 2 retained", rc.Warnings()[0])
}

func TestRunContext_Counters(t *testing.T) {
	rc := NewRunContext(testConfig(), nil)

	rc.recordLabel(false)
	rc.recordLabel(true)
	rc.recordClassified(5)

	assert.Equal(t, LabelStats{LLMLabeled: 2, ClassifierLabeled: 5, Skipped: 1}, rc.Stats())
}

func TestRunContext_ForEachLimitsConcurrency(t *testing.T) {
	cfg := testConfig()
	cfg.Concurrency = 2
	rc := NewRunContext(cfg, nil)

	var inFlight, peak, calls atomic.Int32
	err := rc.forEach(context.Background(), 20, func(_ context.Context, _ int) error {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		calls.Add(1)
		inFlight.Add(-1)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, int32(20), calls.Load())
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRunContext_ForEachStopsOnError(t *testing.T) {
	cfg := testConfig()
	cfg.Concurrency = 1
	rc := NewRunContext(cfg, nil)
	boom := errors.New("boom")

	var calls atomic.Int32
	err := rc.forEach(context.Background(), 10, func(_ context.Context, i int) error {
		calls.Add(1)
		if i == 2 {
			return boom
		}
		return nil
	})

	assert.ErrorIs(t, err, boom)
	assert.Less(t, calls.Load(), int32(10))
}

func TestRunContext_ForEachCancelled(t *testing.T) {
	rc := NewRunContext(testConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := rc.forEach(ctx, 3, func(context.Context, int) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunContext_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RequestsPerSecond = 1000
	rc := NewRunContext(cfg, nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, rc.wait(context.Background()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, rc.wait(ctx))
}
