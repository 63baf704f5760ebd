package retry

import (
	"context"

	"github.com/custodia-labs/taxonomist/internal/core/ports/driven"
)

// Ensure the decorators implement the interfaces.
var (
	_ driven.LLMService       = (*LLMService)(nil)
	_ driven.EmbeddingService = (*EmbeddingService)(nil)
)

// LLMService retries the generation calls of an inner service.
// Ping is not retried; it is used for configuration checks.
type LLMService struct {
	inner  driven.LLMService
	policy *Policy
}

// WrapLLM decorates inner with policy.
func WrapLLM(inner driven.LLMService, policy *Policy) *LLMService {
	return &LLMService{inner: inner, policy: policy}
}

// Generate retries inner.Generate.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return Do(ctx, s.policy, s.inner.ModelName()+" generate", func(ctx context.Context) (string, error) {
		return s.inner.Generate(ctx, prompt, opts)
	})
}

// ModelName returns the inner model name.
func (s *LLMService) ModelName() string { return s.inner.ModelName() }

// Ping calls inner.Ping once.
func (s *LLMService) Ping(ctx context.Context) error { return s.inner.Ping(ctx) }

// Close closes the inner service.
func (s *LLMService) Close() error { return s.inner.Close() }

// EmbeddingService retries the embedding calls of an inner service.
type EmbeddingService struct {
	inner  driven.EmbeddingService
	policy *Policy
}

// WrapEmbedding decorates inner with policy.
func WrapEmbedding(inner driven.EmbeddingService, policy *Policy) *EmbeddingService {
	return &EmbeddingService{inner: inner, policy: policy}
}

// EmbedBatch retries inner.EmbedBatch.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return Do(ctx, s.policy, s.inner.ModelName()+" embed", func(ctx context.Context) ([][]float32, error) {
		return s.inner.EmbedBatch(ctx, texts)
	})
}

// Dimensions returns the inner vector size.
func (s *EmbeddingService) Dimensions() int { return s.inner.Dimensions() }

// ModelName returns the inner model name.
func (s *EmbeddingService) ModelName() string { return s.inner.ModelName() }

// Ping calls inner.Ping once.
func (s *EmbeddingService) Ping(ctx context.Context) error { return s.inner.Ping(ctx) }

// Close closes the inner service.
func (s *EmbeddingService) Close() error { return s.inner.Close() }
