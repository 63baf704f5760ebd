package driven

// ConfigStore holds settings under dotted keys such as "pipeline.model".
// The typed getters return the zero value when a key is absent or holds
// something that does not convert.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	// GetFloat also accepts whole numbers.
	GetFloat(key string) float64
	GetBool(key string) bool
	// GetStringSlice accepts lists and comma separated strings.
	GetStringSlice(key string) []string

	// Set stores value. Persistent stores write through immediately.
	Set(key string, value any) error
	Save() error
	Load() error

	// Path identifies the backing file, for display.
	Path() string
}
