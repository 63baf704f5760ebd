package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		provider AIProvider
		expected bool
	}{
		{"ollama is valid", AIProviderOllama, true},
		{"openai is valid", AIProviderOpenAI, true},
		{"anthropic is valid", AIProviderAnthropic, true},
		{"empty is invalid", AIProvider(""), false},
		{"unknown is invalid", AIProvider("mistral"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

func TestParseModelRef(t *testing.T) {
	ref, err := ParseModelRef("anthropic/claude-3-haiku-20240307")
	require.NoError(t, err)
	assert.Equal(t, AIProviderAnthropic, ref.Provider)
	assert.Equal(t, "claude-3-haiku-20240307", ref.Model)
	assert.Equal(t, "anthropic/claude-3-haiku-20240307", ref.String())

	ref, err = ParseModelRef("Ollama/library/llama3:8b")
	require.NoError(t, err)
	assert.Equal(t, AIProviderOllama, ref.Provider)
	assert.Equal(t, "library/llama3:8b", ref.Model)

	_, err = ParseModelRef("claude")
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = ParseModelRef("mistral/large")
	assert.True(t, errors.Is(err, ErrUnsupportedType))
}

func TestAppSettings_IsConfigured(t *testing.T) {
	s := DefaultAppSettings()
	anthropic := ModelRef{Provider: AIProviderAnthropic, Model: "x"}
	ollama := ModelRef{Provider: AIProviderOllama, Model: "llama3.2"}

	assert.False(t, s.IsConfigured(anthropic))
	assert.True(t, s.IsConfigured(ollama))

	s.Credentials[AIProviderAnthropic] = ProviderCredentials{APIKey: "sk-test"}
	assert.True(t, s.IsConfigured(anthropic))
}

func TestAppSettings_RunConfig(t *testing.T) {
	s := DefaultAppSettings()
	s.Pipeline.SampleSize = 10
	s.Labeling.Classifier = true

	cfg := s.RunConfig()

	assert.Equal(t, 10, cfg.SampleSize)
	assert.True(t, cfg.Classifier.Enabled)
	assert.NoError(t, cfg.Validate())
}
