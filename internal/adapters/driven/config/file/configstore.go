package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/taxonomist/internal/adapters/driven/config/values"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// EnvPrefix marks variables that override settings:
// TAXONOMIST_PIPELINE_BATCH_SIZE overrides pipeline.batch_size.
const EnvPrefix = "TAXONOMIST_"

// providerEnv maps the variables provider SDKs conventionally read onto
// settings keys. EnvPrefix variables win over these.
var providerEnv = map[string]string{
	"OPENAI_API_KEY":    "openai.api_key",
	"ANTHROPIC_API_KEY": "anthropic.api_key",
	"OLLAMA_HOST":       "ollama.base_url",
}

// ConfigStore keeps settings in config.toml as nested tables
// ([pipeline] model = ...) and exposes them under dotted keys.
// Environment overrides are read once at construction and never written back.
type ConfigStore struct {
	mu        sync.RWMutex
	path      string
	settings  map[string]any
	overrides map[string]string
}

// NewConfigStore opens <configDir>/config.toml, defaulting to ~/.taxonomist.
// A missing file is an empty configuration.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".taxonomist")
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		path:      filepath.Join(configDir, "config.toml"),
		settings:  make(map[string]any),
		overrides: envOverrides(os.Environ()),
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

func envOverrides(environ []string) map[string]string {
	out := make(map[string]string)
	var prefixed []string
	for _, kv := range environ {
		name, val, ok := strings.Cut(kv, "=")
		if !ok || val == "" {
			continue
		}
		if key, known := providerEnv[name]; known {
			if key == "ollama.base_url" && !strings.Contains(val, "://") {
				val = "http://" + val
			}
			out[key] = val
			continue
		}
		if rest, found := strings.CutPrefix(name, EnvPrefix); found && rest != "" {
			prefixed = append(prefixed, rest, val)
		}
	}
	for i := 0; i < len(prefixed); i += 2 {
		section, key, ok := strings.Cut(strings.ToLower(prefixed[i]), "_")
		if !ok || section == "" || key == "" {
			continue
		}
		out[section+"."+key] = prefixed[i+1]
	}
	return out
}

// Get returns the environment override for key if one is set, otherwise
// the stored value.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.overrides[key]; ok {
		return v, true
	}
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

// Set stores value and rewrites the file.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
	return s.write()
}

func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write()
}

// write requires s.mu.
func (s *ConfigStore) write() error {
	data, err := toml.Marshal(nest(s.settings))
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(s.path, data, 0600)
}

// Load replaces the stored settings with the file contents.
func (s *ConfigStore) Load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		data, err = nil, nil
	}
	if err != nil {
		return err
	}

	tables := map[string]any{}
	if err := toml.Unmarshal(data, &tables); err != nil {
		return fmt.Errorf("parsing %s: %w", s.path, err)
	}

	flat := make(map[string]any)
	flatten(flat, "", tables)

	s.mu.Lock()
	s.settings = flat
	s.mu.Unlock()
	return nil
}

func (s *ConfigStore) Path() string { return s.path }

// flatten copies tables into dst under dotted keys.
func flatten(dst map[string]any, prefix string, tables map[string]any) {
	for k, v := range tables {
		if prefix != "" {
			k = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			flatten(dst, k, sub)
			continue
		}
		dst[k] = v
	}
}

// nest turns dotted keys back into tables. When a key is both a value and
// a table prefix the value wins.
func nest(flat map[string]any) map[string]any {
	root := make(map[string]any)
	for key, v := range flat {
		path := strings.Split(key, ".")
		table := root
		for _, name := range path[:len(path)-1] {
			existing, taken := table[name]
			if !taken {
				next := make(map[string]any)
				table[name] = next
				table = next
				continue
			}
			next, isTable := existing.(map[string]any)
			if !isTable {
				table = nil
				break
			}
			table = next
		}
		if table != nil {
			table[path[len(path)-1]] = v
		}
	}
	return root
}
