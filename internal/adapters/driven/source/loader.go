// Package source loads raw documents and predefined taxonomies from local
// files.
//
// Record formats (.jsonl, .json, .csv, .yaml, .yml) yield one document per
// record; .txt yields one per non-empty line. Markdown, HTML, email (.eml)
// and Word (.docx) files, and every supported file under a directory, yield
// one document per file.
package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driven"
	"github.com/custodia-labs/taxonomist/internal/logger"
)

// Default record field names.
const (
	DefaultTextField = "text"
	DefaultIDField   = "id"
)

// Ensure Loader implements the interface.
var _ driven.SourceLoader = (*Loader)(nil)

// Loader reads documents from files and directories.
type Loader struct{}

// NewLoader creates a new source loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Extensions returns the supported file extensions.
func Extensions() []string {
	return []string{".jsonl", ".json", ".csv", ".yaml", ".yml", ".txt", ".md", ".markdown", ".html", ".htm", ".eml", ".docx"}
}

// Load reads every document from path.
func (l *Loader) Load(ctx context.Context, path string, opts driven.SourceOptions) ([]domain.RawDocument, error) {
	opts = withDefaults(opts)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	if info.IsDir() {
		return l.loadDir(ctx, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	var docs []domain.RawDocument
	switch ext {
	case ".jsonl":
		docs, err = parseJSONL(ctx, data, opts)
	case ".json":
		docs, err = parseJSON(data, opts)
	case ".csv":
		docs, err = parseCSV(ctx, data, opts)
	case ".yaml", ".yml":
		docs, err = parseYAML(data, opts)
	case ".txt":
		docs = parseLines(data)
	case ".md", ".markdown", ".html", ".htm", ".eml", ".docx":
		var content string
		if content, err = extractText(ext, data); err == nil {
			docs = []domain.RawDocument{{ID: filepath.Base(path), Content: content}}
		}
	default:
		return nil, fmt.Errorf("%w: source file extension %q", domain.ErrUnsupportedType, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}

	logger.Debug("Loaded %d documents from %s", len(docs), path)
	return docs, nil
}

// loadDir reads every text-like file below root as one document, keyed by
// its slash-separated relative path. Files are visited in lexical order.
func (l *Loader) loadDir(ctx context.Context, root string) ([]domain.RawDocument, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if isTextFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk source directory: %w", err)
	}
	sort.Strings(paths)

	docs := make([]domain.RawDocument, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		content, err := extractText(strings.ToLower(filepath.Ext(path)), data)
		if err != nil {
			logger.Warn("Skipping %s: %v", path, err)
			continue
		}
		if strings.TrimSpace(content) == "" {
			logger.Warn("Skipping empty file %s", path)
			continue
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		docs = append(docs, domain.RawDocument{ID: filepath.ToSlash(rel), Content: content})
	}

	logger.Debug("Loaded %d documents from directory %s", len(docs), root)
	return docs, nil
}

func isTextFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown", ".html", ".htm", ".eml", ".docx":
		return true
	}
	return false
}

func withDefaults(opts driven.SourceOptions) driven.SourceOptions {
	if opts.TextField == "" {
		opts.TextField = DefaultTextField
	}
	if opts.IDField == "" {
		opts.IDField = DefaultIDField
	}
	return opts
}
