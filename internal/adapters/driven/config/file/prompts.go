package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/taxonomist/internal/core/ports/driven"
	"github.com/custodia-labs/taxonomist/internal/core/prompts"
	"github.com/custodia-labs/taxonomist/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore serves prompt templates from <dir>/<name>.txt. Missing,
// empty or unparseable files fall back to the built-in template.
//
// The directory is populated with the built-ins on first use; files that
// already exist are user edits and are left alone.
type PromptStore struct {
	dir      string
	builtins map[string]string

	setup    sync.Once
	setupErr error

	mu     sync.RWMutex
	loaded map[string]string
}

// NewPromptStore does no I/O. An empty dir means ~/.taxonomist/prompts.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".taxonomist", "prompts")
	}
	return &PromptStore{
		dir:      dir,
		builtins: prompts.Defaults(),
		loaded:   make(map[string]string),
	}, nil
}

func (s *PromptStore) Load(name string) (string, error) {
	builtin, known := s.builtins[name]

	s.setup.Do(s.populate)
	if s.setupErr != nil {
		if known {
			return builtin, nil
		}
		return "", fmt.Errorf("prompt directory: %w", s.setupErr)
	}

	s.mu.RLock()
	text, hit := s.loaded[name]
	s.mu.RUnlock()
	if hit {
		return text, nil
	}

	text, err := s.read(name)
	switch {
	case err != nil && !known:
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	case err != nil:
		if !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, errEmptyPrompt) {
			logger.Warn("prompt %s: %v, using the built-in template", name, err)
		}
		text = builtin
	}

	s.mu.Lock()
	if cached, ok := s.loaded[name]; ok {
		text = cached
	} else {
		s.loaded[name] = text
	}
	s.mu.Unlock()
	return text, nil
}

var errEmptyPrompt = errors.New("file is empty")

// read returns the trimmed file contents after checking they parse as a
// template.
func (s *PromptStore) read(name string) (string, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", errEmptyPrompt
	}
	if _, err := template.New(name).Parse(text); err != nil {
		return "", err
	}
	return text, nil
}

// Reload drops cached templates so the next Load reads the files again.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	clear(s.loaded)
	s.mu.Unlock()
}

// Reset overwrites a prompt file with its built-in template.
func (s *PromptStore) Reset(name string) error {
	builtin, ok := s.builtins[name]
	if !ok {
		return fmt.Errorf("unknown prompt %q", name)
	}
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}
	if err := os.WriteFile(s.Path(name), []byte(builtin), 0600); err != nil {
		return fmt.Errorf("reset prompt %q: %w", name, err)
	}
	s.Reload()
	return nil
}

func (s *PromptStore) Dir() string { return s.dir }

func (s *PromptStore) Path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

// Watch clears the cache whenever a .txt file in the directory changes,
// until ctx is done. Used by long-running processes such as the MCP server.
func (s *PromptStore) Watch(ctx context.Context) error {
	s.setup.Do(s.populate)
	if s.setupErr != nil {
		return s.setupErr
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create prompt watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}

	const changed = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Ext(ev.Name) == ".txt" && ev.Op&changed != 0 {
					logger.Debug("Prompt %s changed, reloading", filepath.Base(ev.Name))
					s.Reload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Prompt watcher: %v", err)
			}
		}
	}()
	return nil
}

// populate creates the directory and writes the built-ins and README
// where no file exists yet.
func (s *PromptStore) populate() {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		s.setupErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}
	for name, text := range s.builtins {
		if err := writeIfMissing(s.Path(name), text); err != nil {
			s.setupErr = fmt.Errorf("create default prompt %q: %w", name, err)
			return
		}
	}
	s.setupErr = writeIfMissing(filepath.Join(s.dir, "README.md"), promptReadme)
}

func writeIfMissing(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

const promptReadme = "# Taxonomist Prompts\n\n" +
	"This directory holds the prompts taxonomist sends to language models.\n\n" +
	"- `taxonomy.txt` proposes and revises the category table for each batch\n" +
	"- `taxonomy_system.txt` is the system prompt sent with every taxonomy request\n" +
	"- `summarise.txt` summarises one sampled document\n" +
	"- `label.txt` assigns one category to a document\n\n" +
	"Edits take effect on the next run, or immediately for a running\n" +
	"`taxonomist mcp serve`. `taxonomist prompts reset <name>` restores a\n" +
	"built-in prompt.\n\n" +
	"Prompts are Go text/template templates. Keep the fields each prompt uses,\n" +
	"such as `{{.Content}}` or `{{.Data}}`, and the XML tags the model is asked\n" +
	"to answer with. A file that does not parse is ignored in favour of the\n" +
	"built-in.\n"
