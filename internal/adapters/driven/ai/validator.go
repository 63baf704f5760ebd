package ai

import (
	"fmt"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator validates model references by pinging their provider.
type ConfigValidator struct{}

// NewConfigValidator creates a new AI config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateLLM creates the service for ref and pings it.
func (v *ConfigValidator) ValidateLLM(ref domain.ModelRef, creds domain.ProviderCredentials) error {
	svc, err := CreateLLMService(ref, creds)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := ping(svc); err != nil {
		return fmt.Errorf("%w: %s unreachable: %w", domain.ErrLLMUnavailable, ref, err)
	}
	return nil
}

// ValidateEmbedding creates the embedding service for ref and pings it.
func (v *ConfigValidator) ValidateEmbedding(ref domain.ModelRef, creds domain.ProviderCredentials) error {
	svc, err := CreateEmbeddingService(ref, creds)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := ping(svc); err != nil {
		return fmt.Errorf("%w: %s unreachable: %w", domain.ErrEmbeddingUnavailable, ref, err)
	}
	return nil
}
