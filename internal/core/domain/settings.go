package domain

import (
	"fmt"
	"strings"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// SupportsEmbeddings returns true if this provider can produce embeddings.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderOpenAI || p == AIProviderOllama
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// ModelRef is a provider-qualified model name such as
// "anthropic/claude-3-haiku-20240307".
type ModelRef struct {
	Provider AIProvider
	Model    string
}

// ParseModelRef splits a "provider/model" reference at the first slash.
func ParseModelRef(ref string) (ModelRef, error) {
	provider, model, ok := strings.Cut(strings.TrimSpace(ref), "/")
	if !ok || model == "" {
		return ModelRef{}, fmt.Errorf("%w: model %q must be in the form provider/model", ErrInvalidInput, ref)
	}
	p := AIProvider(strings.ToLower(provider))
	if !p.IsValid() {
		return ModelRef{}, fmt.Errorf("%w: provider %q", ErrUnsupportedType, provider)
	}
	return ModelRef{Provider: p, Model: model}, nil
}

// String returns the "provider/model" form.
func (r ModelRef) String() string {
	return string(r.Provider) + "/" + r.Model
}

// ProviderCredentials holds connection details for one provider.
type ProviderCredentials struct {
	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// BaseURL overrides the API endpoint. Required in practice for
	// self-hosted Ollama on a non-default address.
	BaseURL string
}

// PipelineSettings holds the persisted defaults for pipeline runs.
type PipelineSettings struct {
	Model             string
	FastModel         string
	SampleSize        int
	BatchSize         int
	MaxNumClusters    int
	UseCase           string
	Concurrency       int
	RequestsPerSecond float64
	RevisionPolicy    RevisionPolicy
}

// LabelingSettings holds the persisted classifier defaults.
type LabelingSettings struct {
	Classifier          bool
	EmbeddingModel      string
	ConfidenceThreshold float64
}

// OutputSettings controls where run exports are written.
type OutputSettings struct {
	Dir     string
	Formats []string
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Credentials holds per-provider connection details.
	Credentials map[AIProvider]ProviderCredentials

	// Pipeline holds run defaults.
	Pipeline PipelineSettings

	// Labeling holds classifier defaults.
	Labeling LabelingSettings

	// Output holds export defaults.
	Output OutputSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// API keys are left empty; users must configure them via settings.
func DefaultAppSettings() AppSettings {
	def := DefaultRunConfig()
	return AppSettings{
		Credentials: map[AIProvider]ProviderCredentials{
			AIProviderOllama: {BaseURL: "http://localhost:11434"},
		},
		Pipeline: PipelineSettings{
			Model:             def.Model,
			FastModel:         def.FastModel,
			SampleSize:        def.SampleSize,
			BatchSize:         def.BatchSize,
			MaxNumClusters:    def.MaxNumClusters,
			UseCase:           def.UseCase,
			Concurrency:       def.Concurrency,
			RequestsPerSecond: def.RequestsPerSecond,
			RevisionPolicy:    def.RevisionPolicy,
		},
		Labeling: LabelingSettings{
			EmbeddingModel: def.Classifier.EmbeddingModel,
		},
		Output: OutputSettings{
			Dir:     "./results",
			Formats: []string{"json", "csv", "markdown"},
		},
	}
}

// CredentialsFor returns the credentials for a provider.
func (s AppSettings) CredentialsFor(p AIProvider) ProviderCredentials {
	if s.Credentials == nil {
		return ProviderCredentials{}
	}
	return s.Credentials[p]
}

// IsConfigured returns true if the model's provider has what it needs.
func (s AppSettings) IsConfigured(ref ModelRef) bool {
	if !ref.Provider.IsValid() {
		return false
	}
	if ref.Provider.RequiresAPIKey() && s.CredentialsFor(ref.Provider).APIKey == "" {
		return false
	}
	return true
}

// RunConfig builds a run configuration from the persisted settings.
func (s AppSettings) RunConfig() RunConfig {
	cfg := DefaultRunConfig()
	cfg.Model = s.Pipeline.Model
	cfg.FastModel = s.Pipeline.FastModel
	cfg.SampleSize = s.Pipeline.SampleSize
	cfg.BatchSize = s.Pipeline.BatchSize
	cfg.MaxNumClusters = s.Pipeline.MaxNumClusters
	cfg.UseCase = s.Pipeline.UseCase
	cfg.Concurrency = s.Pipeline.Concurrency
	cfg.RequestsPerSecond = s.Pipeline.RequestsPerSecond
	cfg.RevisionPolicy = s.Pipeline.RevisionPolicy
	cfg.Classifier.Enabled = s.Labeling.Classifier
	cfg.Classifier.EmbeddingModel = s.Labeling.EmbeddingModel
	cfg.Classifier.ConfidenceThreshold = s.Labeling.ConfidenceThreshold
	return cfg
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-20241022",
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-large",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
