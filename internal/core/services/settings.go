package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driven"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyModel               = "pipeline.model"
	keyFastModel           = "pipeline.fast_model"
	keySampleSize          = "pipeline.sample_size"
	keyBatchSize           = "pipeline.batch_size"
	keyMaxNumClusters      = "pipeline.max_num_clusters"
	keyUseCase             = "pipeline.use_case"
	keyConcurrency         = "pipeline.concurrency"
	keyRequestsPerSecond   = "pipeline.requests_per_second"
	keyRevisionPolicy      = "pipeline.revision_policy"
	keyClassifier          = "labeling.classifier"
	keyEmbeddingModel      = "labeling.embedding_model"
	keyConfidenceThreshold = "labeling.confidence_threshold"
	keyOutputDir           = "output.dir"
	keyOutputFormats       = "output.formats"

	suffixAPIKey  = ".api_key"
	suffixBaseURL = ".base_url"
)

// settingKind is how a string value is converted before storage.
type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
	kindBool
	kindList
	kindModel
)

var settingKinds = map[string]settingKind{
	keyModel:               kindModel,
	keyFastModel:           kindModel,
	keySampleSize:          kindInt,
	keyBatchSize:           kindInt,
	keyMaxNumClusters:      kindInt,
	keyUseCase:             kindString,
	keyConcurrency:         kindInt,
	keyRequestsPerSecond:   kindFloat,
	keyRevisionPolicy:      kindString,
	keyClassifier:          kindBool,
	keyEmbeddingModel:      kindModel,
	keyConfidenceThreshold: kindFloat,
	keyOutputDir:           kindString,
	keyOutputFormats:       kindList,
}

// SettingKeys returns every key accepted by Set, sorted.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKinds)+2*len(domain.AllLLMProviders()))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	for _, p := range domain.AllLLMProviders() {
		keys = append(keys, string(p)+suffixAPIKey, string(p)+suffixBaseURL)
	}
	sort.Strings(keys)
	return keys
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Credentials: make(map[domain.AIProvider]domain.ProviderCredentials),
		Pipeline: domain.PipelineSettings{
			Model:             s.getString(keyModel, defaults.Pipeline.Model),
			FastModel:         s.getString(keyFastModel, defaults.Pipeline.FastModel),
			SampleSize:        s.getInt(keySampleSize, defaults.Pipeline.SampleSize),
			BatchSize:         s.getInt(keyBatchSize, defaults.Pipeline.BatchSize),
			MaxNumClusters:    s.getInt(keyMaxNumClusters, defaults.Pipeline.MaxNumClusters),
			UseCase:           s.getString(keyUseCase, defaults.Pipeline.UseCase),
			Concurrency:       s.getInt(keyConcurrency, defaults.Pipeline.Concurrency),
			RequestsPerSecond: s.getFloat(keyRequestsPerSecond, defaults.Pipeline.RequestsPerSecond),
			RevisionPolicy:    s.getRevisionPolicy(defaults.Pipeline.RevisionPolicy),
		},
		Labeling: domain.LabelingSettings{
			Classifier:          s.getBool(keyClassifier, defaults.Labeling.Classifier),
			EmbeddingModel:      s.getString(keyEmbeddingModel, defaults.Labeling.EmbeddingModel),
			ConfidenceThreshold: s.getFloat(keyConfidenceThreshold, defaults.Labeling.ConfidenceThreshold),
		},
		Output: domain.OutputSettings{
			Dir:     s.getString(keyOutputDir, defaults.Output.Dir),
			Formats: s.getStringSlice(keyOutputFormats, defaults.Output.Formats),
		},
	}

	for _, p := range domain.AllLLMProviders() {
		def := defaults.CredentialsFor(p)
		creds := domain.ProviderCredentials{
			APIKey:  s.configStore.GetString(string(p) + suffixAPIKey),
			BaseURL: s.getString(string(p)+suffixBaseURL, def.BaseURL),
		}
		if creds != (domain.ProviderCredentials{}) {
			settings.Credentials[p] = creds
		}
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyModel, settings.Pipeline.Model},
		{keyFastModel, settings.Pipeline.FastModel},
		{keySampleSize, settings.Pipeline.SampleSize},
		{keyBatchSize, settings.Pipeline.BatchSize},
		{keyMaxNumClusters, settings.Pipeline.MaxNumClusters},
		{keyUseCase, settings.Pipeline.UseCase},
		{keyConcurrency, settings.Pipeline.Concurrency},
		{keyRequestsPerSecond, settings.Pipeline.RequestsPerSecond},
		{keyRevisionPolicy, string(settings.Pipeline.RevisionPolicy)},
		{keyClassifier, settings.Labeling.Classifier},
		{keyEmbeddingModel, settings.Labeling.EmbeddingModel},
		{keyConfidenceThreshold, settings.Labeling.ConfidenceThreshold},
		{keyOutputDir, settings.Output.Dir},
		{keyOutputFormats, settings.Output.Formats},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	for p, creds := range settings.Credentials {
		if err := s.saveCredentials(p, creds); err != nil {
			return err
		}
	}

	return s.configStore.Save()
}

// Set updates a single setting by its dotted key, converting value to
// the key's type.
func (s *SettingsService) Set(key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)

	if provider, ok := credentialProvider(key); ok {
		if !provider.IsValid() {
			return fmt.Errorf("%w: provider %q", domain.ErrUnsupportedType, provider)
		}
		if err := s.configStore.Set(key, value); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
		return s.configStore.Save()
	}

	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	parsed, err := parseSetting(key, kind, value)
	if err != nil {
		return err
	}

	// Validate the resulting configuration before persisting.
	settings, err := s.Get()
	if err != nil {
		return err
	}
	applySetting(settings, key, parsed)
	if err := settings.RunConfig().Validate(); err != nil {
		return err
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return s.configStore.Save()
}

// SetCredentials configures a provider's API key and base URL.
func (s *SettingsService) SetCredentials(provider domain.AIProvider, apiKey, baseURL string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: provider %q", domain.ErrUnsupportedType, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: %s requires an API key", domain.ErrConfiguration, provider.Description())
	}
	if err := s.saveCredentials(provider, domain.ProviderCredentials{APIKey: apiKey, BaseURL: baseURL}); err != nil {
		return err
	}
	return s.configStore.Save()
}

// Keys returns every key accepted by Set.
func (s *SettingsService) Keys() []string {
	return SettingKeys()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Validate checks that the stored pipeline defaults are valid and that the
// configured models have usable credentials.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if err := settings.RunConfig().Validate(); err != nil {
		return err
	}

	refs := []string{settings.Pipeline.Model, settings.Pipeline.FastModel}
	if settings.Labeling.Classifier {
		refs = append(refs, settings.Labeling.EmbeddingModel)
	}
	for _, raw := range refs {
		ref, err := domain.ParseModelRef(raw)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
		}
		if !settings.IsConfigured(ref) {
			return fmt.Errorf("%w: model %s requires %s credentials",
				domain.ErrConfiguration, ref, ref.Provider.Description())
		}
	}

	return nil
}

// ValidateModel pings the provider behind a model reference. Embedding
// models are recognised by the configured embedding model name.
func (s *SettingsService) ValidateModel(raw string) error {
	ref, err := domain.ParseModelRef(raw)
	if err != nil {
		return err
	}
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	creds := settings.CredentialsFor(ref.Provider)
	if raw == settings.Labeling.EmbeddingModel {
		return s.aiValidator.ValidateEmbedding(ref, creds)
	}
	return s.aiValidator.ValidateLLM(ref, creds)
}

func (s *SettingsService) saveCredentials(p domain.AIProvider, creds domain.ProviderCredentials) error {
	if err := s.configStore.Set(string(p)+suffixAPIKey, creds.APIKey); err != nil {
		return fmt.Errorf("save %s credentials: %w", p, err)
	}
	if err := s.configStore.Set(string(p)+suffixBaseURL, creds.BaseURL); err != nil {
		return fmt.Errorf("save %s credentials: %w", p, err)
	}
	return nil
}

// credentialProvider reports whether key is "<provider>.api_key" or
// "<provider>.base_url".
func credentialProvider(key string) (domain.AIProvider, bool) {
	for _, suffix := range []string{suffixAPIKey, suffixBaseURL} {
		if name, ok := strings.CutSuffix(key, suffix); ok && !strings.Contains(name, ".") {
			return domain.AIProvider(name), true
		}
	}
	return "", false
}

func parseSetting(key string, kind settingKind, value string) (any, error) {
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		return f, nil
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		return b, nil
	case kindList:
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return items, nil
	case kindModel:
		if _, err := domain.ParseModelRef(value); err != nil {
			return nil, err
		}
		return value, nil
	default:
		return value, nil
	}
}

func applySetting(settings *domain.AppSettings, key string, value any) {
	switch key {
	case keyModel:
		settings.Pipeline.Model = value.(string)
	case keyFastModel:
		settings.Pipeline.FastModel = value.(string)
	case keySampleSize:
		settings.Pipeline.SampleSize = value.(int)
	case keyBatchSize:
		settings.Pipeline.BatchSize = value.(int)
	case keyMaxNumClusters:
		settings.Pipeline.MaxNumClusters = value.(int)
	case keyUseCase:
		settings.Pipeline.UseCase = value.(string)
	case keyConcurrency:
		settings.Pipeline.Concurrency = value.(int)
	case keyRequestsPerSecond:
		settings.Pipeline.RequestsPerSecond = value.(float64)
	case keyRevisionPolicy:
		settings.Pipeline.RevisionPolicy = domain.RevisionPolicy(value.(string))
	case keyClassifier:
		settings.Labeling.Classifier = value.(bool)
	case keyEmbeddingModel:
		settings.Labeling.EmbeddingModel = value.(string)
	case keyConfidenceThreshold:
		settings.Labeling.ConfidenceThreshold = value.(float64)
	case keyOutputDir:
		settings.Output.Dir = value.(string)
	case keyOutputFormats:
		settings.Output.Formats = value.([]string)
	}
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getStringSlice(key string, defaultVal []string) []string {
	val := s.configStore.GetStringSlice(key)
	if len(val) == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getRevisionPolicy(defaultVal domain.RevisionPolicy) domain.RevisionPolicy {
	policy := domain.RevisionPolicy(s.configStore.GetString(keyRevisionPolicy))
	if !policy.IsValid() {
		return defaultVal
	}
	return policy
}
