package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/taxonomist/internal/core/ports/driven"
)

// scriptedLLM returns the scripted errors in order, then "ok".
type scriptedLLM struct {
	errs  []error
	calls int
}

func (s *scriptedLLM) Generate(_ context.Context, _ string, _ driven.GenerateOptions) (string, error) {
	s.calls++
	if s.calls <= len(s.errs) {
		return "", s.errs[s.calls-1]
	}
	return "ok", nil
}

func (s *scriptedLLM) ModelName() string           { return "scripted" }
func (s *scriptedLLM) Ping(_ context.Context) error { return nil }
func (s *scriptedLLM) Close() error                 { return nil }

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func recordingPolicy(delays *[]time.Duration, opts ...Option) *Policy {
	opts = append([]Option{WithJitter(0)}, opts...)
	opts = append(opts, WithSleeper(func(d time.Duration) { *delays = append(*delays, d) }))
	return NewPolicy(opts...)
}

func TestLLMService_RetriesTransientErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"rate limited", &driven.StatusError{Provider: "openai", StatusCode: 429}},
		{"server error", &driven.StatusError{Provider: "openai", StatusCode: 503}},
		{"request timeout", &driven.StatusError{Provider: "openai", StatusCode: 408}},
		{"empty response", fmt.Errorf("openai: %w", driven.ErrEmptyResponse)},
		{"network timeout", fmt.Errorf("send: %w", timeoutErr{})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var delays []time.Duration
			inner := &scriptedLLM{errs: []error{tt.err, tt.err}}
			svc := WrapLLM(inner, recordingPolicy(&delays))

			got, err := svc.Generate(context.Background(), "p", driven.GenerateOptions{})

			require.NoError(t, err)
			assert.Equal(t, "ok", got)
			assert.Equal(t, 3, inner.calls)
			assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
		})
	}
}

func TestLLMService_DoesNotRetryPermanentErrors(t *testing.T) {
	var delays []time.Duration
	permanent := &driven.StatusError{Provider: "anthropic", StatusCode: 401, Body: "bad key"}
	inner := &scriptedLLM{errs: []error{permanent}}
	svc := WrapLLM(inner, recordingPolicy(&delays))

	_, err := svc.Generate(context.Background(), "p", driven.GenerateOptions{})

	var statusErr *driven.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 401, statusErr.StatusCode)
	assert.Equal(t, 1, inner.calls)
	assert.Empty(t, delays)
}

func TestLLMService_GivesUpAfterMaxAttempts(t *testing.T) {
	var delays []time.Duration
	busy := &driven.StatusError{Provider: "openai", StatusCode: 500}
	inner := &scriptedLLM{errs: []error{busy, busy, busy, busy}}
	svc := WrapLLM(inner, recordingPolicy(&delays, WithMaxAttempts(3)))

	_, err := svc.Generate(context.Background(), "p", driven.GenerateOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.ErrorIs(t, err, busy)
	assert.Equal(t, 3, inner.calls)
	assert.Len(t, delays, 2)
}

func TestLLMService_HonoursRetryAfterWithCap(t *testing.T) {
	var delays []time.Duration
	inner := &scriptedLLM{errs: []error{
		&driven.StatusError{StatusCode: 429, RetryAfter: 3 * time.Second},
		&driven.StatusError{StatusCode: 429, RetryAfter: time.Minute},
	}}
	svc := WrapLLM(inner, recordingPolicy(&delays))

	_, err := svc.Generate(context.Background(), "p", driven.GenerateOptions{})

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{3 * time.Second, DefaultMaxDelay}, delays)
}

func TestLLMService_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inner := &scriptedLLM{errs: []error{&driven.StatusError{StatusCode: 503}}}
	svc := WrapLLM(inner, NewPolicy(WithBackoff(time.Millisecond, time.Millisecond)))

	_, err := svc.Generate(ctx, "p", driven.GenerateOptions{})

	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestPolicy_BackoffDoublesUpToMax(t *testing.T) {
	p := NewPolicy(WithBackoff(time.Second, 5*time.Second), WithJitter(0))

	assert.Equal(t, time.Second, p.backoff(1))
	assert.Equal(t, 2*time.Second, p.backoff(2))
	assert.Equal(t, 4*time.Second, p.backoff(3))
	assert.Equal(t, 5*time.Second, p.backoff(4))
	assert.Equal(t, 5*time.Second, p.backoff(10))
}

func TestPolicy_BackoffJitterStaysInRange(t *testing.T) {
	p := NewPolicy(WithBackoff(time.Second, 5*time.Second), WithJitter(0.5))

	seen := make(map[time.Duration]bool)
	for range 200 {
		d := p.backoff(2)
		assert.GreaterOrEqual(t, d, time.Second)
		assert.LessOrEqual(t, d, 2*time.Second)
		seen[d] = true

		capped := p.backoff(10)
		assert.GreaterOrEqual(t, capped, 2500*time.Millisecond)
		assert.LessOrEqual(t, capped, 5*time.Second)
	}
	assert.Greater(t, len(seen), 1)
}

func TestPolicy_DefaultJitter(t *testing.T) {
	p := NewPolicy()
	for range 50 {
		d := p.backoff(1)
		assert.GreaterOrEqual(t, d, 800*time.Millisecond)
		assert.LessOrEqual(t, d, DefaultBaseDelay)
	}
}

func TestPolicy_ZeroBaseDelayRetriesImmediately(t *testing.T) {
	p := NewPolicy(WithBackoff(0, 0))
	assert.Zero(t, p.backoff(3))
}

func TestEmbeddingService_Retries(t *testing.T) {
	calls := 0
	inner := &fakeEmbedder{embed: func() ([][]float32, error) {
		calls++
		if calls == 1 {
			return nil, &driven.StatusError{StatusCode: 502}
		}
		return [][]float32{{1, 2}}, nil
	}}
	svc := WrapEmbedding(inner, NewPolicy(WithSleeper(func(time.Duration) {})))

	vecs, err := svc.EmbedBatch(context.Background(), []string{"a"})

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 2}}, vecs)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, svc.Dimensions())
}

type fakeEmbedder struct {
	embed func() ([][]float32, error)
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, _ []string) ([][]float32, error) {
	return f.embed()
}

func (f *fakeEmbedder) Dimensions() int              { return 2 }
func (f *fakeEmbedder) ModelName() string            { return "fake" }
func (f *fakeEmbedder) Ping(_ context.Context) error { return errors.New("unused") }
func (f *fakeEmbedder) Close() error                 { return nil }
