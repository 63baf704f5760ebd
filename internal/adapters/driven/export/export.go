// Package export renders completed runs as JSON, CSV or Markdown files.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driven"
	"github.com/custodia-labs/taxonomist/internal/logger"
)

var exporters = map[string]driven.Exporter{
	"json":     &JSON{},
	"csv":      &CSV{},
	"markdown": &Markdown{},
}

// Formats returns the supported format names in sorted order.
func Formats() []string {
	names := make([]string, 0, len(exporters))
	for name := range exporters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns the exporter for a format name. "md" is accepted for markdown.
func New(format string) (driven.Exporter, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "md" {
		format = "markdown"
	}
	e, ok := exporters[format]
	if !ok {
		return nil, fmt.Errorf("%w: export format %q (supported: %s)",
			domain.ErrUnsupportedType, format, strings.Join(Formats(), ", "))
	}
	return e, nil
}

// WriteAll exports run in every format to dir, creating it if needed.
// Files are named after the run ID. Returns the written paths in format order.
func WriteAll(dir string, run *domain.RunResult, formats []string) ([]string, error) {
	selected := make([]driven.Exporter, 0, len(formats))
	for _, f := range formats {
		e, err := New(f)
		if err != nil {
			return nil, err
		}
		selected = append(selected, e)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	paths := make([]string, 0, len(selected))
	for _, e := range selected {
		path := filepath.Join(dir, run.ID+e.Extension())
		if err := writeFile(path, e, run); err != nil {
			return paths, err
		}
		logger.Debug("Exported %s to %s", e.Format(), path)
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, e driven.Exporter, run *domain.RunResult) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if err := e.Export(f, run); err != nil {
		return fmt.Errorf("export %s: %w", e.Format(), err)
	}
	return nil
}
