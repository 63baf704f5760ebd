package memory

import (
	"sync"

	"github.com/custodia-labs/taxonomist/internal/adapters/driven/config/values"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings for the life of the process. It stands in
// for the file store when the config directory cannot be opened.
type ConfigStore struct {
	mu       sync.RWMutex
	settings map[string]any
}

// NewConfigStore returns an empty store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{settings: make(map[string]any)}
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.settings[key]
	return v, ok
}

func (s *ConfigStore) lookup(key string) any {
	v, _ := s.Get(key)
	return v
}

func (s *ConfigStore) GetString(key string) string        { return values.String(s.lookup(key)) }
func (s *ConfigStore) GetInt(key string) int              { return values.Int(s.lookup(key)) }
func (s *ConfigStore) GetFloat(key string) float64        { return values.Float(s.lookup(key)) }
func (s *ConfigStore) GetBool(key string) bool            { return values.Bool(s.lookup(key)) }
func (s *ConfigStore) GetStringSlice(key string) []string { return values.Strings(s.lookup(key)) }

func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	s.settings[key] = value
	s.mu.Unlock()
	return nil
}

// Save and Load have nothing to do.
func (s *ConfigStore) Save() error { return nil }
func (s *ConfigStore) Load() error { return nil }

// Path reports the pseudo path shown by `taxonomist settings`.
func (s *ConfigStore) Path() string { return ":memory:" }
