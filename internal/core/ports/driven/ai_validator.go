package driven

import "github.com/custodia-labs/taxonomist/internal/core/domain"

// AIConfigValidator validates AI provider configurations.
// Implementations verify that configurations are valid by testing connectivity
// to the underlying AI services.
type AIConfigValidator interface {
	// ValidateLLM validates a model reference by pinging its provider.
	ValidateLLM(ref domain.ModelRef, creds domain.ProviderCredentials) error

	// ValidateEmbedding validates an embedding model reference by pinging its provider.
	ValidateEmbedding(ref domain.ModelRef, creds domain.ProviderCredentials) error
}
