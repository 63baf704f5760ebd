// Package prompts holds the built-in prompt templates and renders them.
//
// Templates use text/template syntax. User-edited copies are served by a
// driven.PromptStore; the built-ins here are the fallback.
package prompts

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/custodia-labs/taxonomist/internal/core/ports/driven"
)

//go:embed defaults/*.txt
var defaults embed.FS

// Default returns the built-in template for a prompt name.
func Default(name string) (string, bool) {
	data, err := defaults.ReadFile("defaults/" + name + ".txt")
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Defaults returns every built-in template keyed by name.
func Defaults() map[string]string {
	out := make(map[string]string)
	for _, name := range driven.PromptNames() {
		if t, ok := Default(name); ok {
			out[name] = t
		}
	}
	return out
}

// Renderer executes prompt templates loaded from a store.
// A nil store, or a store that fails to load a name, falls back to the
// built-in template.
type Renderer struct {
	store driven.PromptStore
}

// NewRenderer creates a renderer over store, which may be nil.
func NewRenderer(store driven.PromptStore) *Renderer {
	return &Renderer{store: store}
}

// Render executes the named template with data.
func (r *Renderer) Render(name string, data any) (string, error) {
	text, err := r.load(name)
	if err != nil {
		return "", err
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse prompt %q: %w", name, err)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render prompt %q: %w", name, err)
	}
	return b.String(), nil
}

func (r *Renderer) load(name string) (string, error) {
	if r != nil && r.store != nil {
		if text, err := r.store.Load(name); err == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
	}
	if text, ok := Default(name); ok {
		return text, nil
	}
	return "", fmt.Errorf("unknown prompt %q", name)
}
