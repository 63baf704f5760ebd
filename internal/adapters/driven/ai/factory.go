// Package ai resolves "provider/model" references into LLM and embedding
// service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/taxonomist/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/taxonomist/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/taxonomist/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/taxonomist/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/taxonomist/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/taxonomist/internal/adapters/driven/llm/retry"
	"github.com/custodia-labs/taxonomist/internal/core/domain"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Ensure Factory implements the interface.
var _ driven.ModelProvider = (*Factory)(nil)

// Factory builds retrying services from persisted provider credentials.
type Factory struct {
	settings domain.AppSettings
	policy   *retry.Policy
}

// NewFactory creates a factory for the given settings. Retry options
// apply to every service it returns.
func NewFactory(settings domain.AppSettings, opts ...retry.Option) *Factory {
	return &Factory{
		settings: settings,
		policy:   retry.NewPolicy(opts...),
	}
}

// LLM returns a text generation service for ref.
func (f *Factory) LLM(ref string) (driven.LLMService, error) {
	parsed, err := domain.ParseModelRef(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	if !f.settings.IsConfigured(parsed) {
		return nil, fmt.Errorf("%w: no API key for %s. Run 'taxonomist settings set %s.api_key' to fix",
			domain.ErrLLMUnavailable, parsed.Provider, parsed.Provider)
	}

	svc, err := CreateLLMService(parsed, f.settings.CredentialsFor(parsed.Provider))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	return retry.WrapLLM(svc, f.policy), nil
}

// Embedding returns an embedding service for ref.
func (f *Factory) Embedding(ref string) (driven.EmbeddingService, error) {
	parsed, err := domain.ParseModelRef(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if !f.settings.IsConfigured(parsed) {
		return nil, fmt.Errorf("%w: no API key for %s. Run 'taxonomist settings set %s.api_key' to fix",
			domain.ErrEmbeddingUnavailable, parsed.Provider, parsed.Provider)
	}

	svc, err := CreateEmbeddingService(parsed, f.settings.CredentialsFor(parsed.Provider))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return retry.WrapEmbedding(svc, f.policy), nil
}

// CreateLLMService creates the adapter for ref without retries.
func CreateLLMService(ref domain.ModelRef, creds domain.ProviderCredentials) (driven.LLMService, error) {
	switch ref.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: creds.BaseURL,
			Model:   ref.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  creds.APIKey,
			BaseURL: creds.BaseURL,
			Model:   ref.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  creds.APIKey,
			BaseURL: creds.BaseURL,
			Model:   ref.Model,
		})

	default:
		return nil, fmt.Errorf("%w: LLM provider %q", domain.ErrUnsupportedType, ref.Provider)
	}
}

// CreateEmbeddingService creates the adapter for ref without retries.
func CreateEmbeddingService(ref domain.ModelRef, creds domain.ProviderCredentials) (driven.EmbeddingService, error) {
	dimensions := domain.EmbeddingDimensions()[ref.Model]

	switch ref.Provider {
	case domain.AIProviderOllama:
		if dimensions == 0 {
			dimensions = ollamaembed.DefaultDimensions
		}
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    creds.BaseURL,
			Model:      ref.Model,
			Dimensions: dimensions,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     creds.APIKey,
			BaseURL:    creds.BaseURL,
			Model:      ref.Model,
			Dimensions: dimensions,
		})

	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("%w: anthropic does not support embeddings, use ollama or openai",
			domain.ErrUnsupportedType)

	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, ref.Provider)
	}
}

// ping checks a service with a bounded timeout.
func ping(p interface{ Ping(context.Context) error }) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return p.Ping(ctx)
}
