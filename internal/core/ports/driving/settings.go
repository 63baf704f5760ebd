package driving

import "github.com/custodia-labs/taxonomist/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set updates a single setting by its dotted key, e.g. "pipeline.batch_size".
	Set(key, value string) error

	// SetCredentials configures a provider's API key and base URL.
	SetCredentials(provider domain.AIProvider, apiKey, baseURL string) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// Validate checks that the configured models have usable credentials.
	Validate() error

	// ValidateModel pings the provider behind a model reference.
	ValidateModel(ref string) error

	// Keys returns every key accepted by Set.
	Keys() []string
}
