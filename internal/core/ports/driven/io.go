package driven

import (
	"context"
	"io"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
)

// SourceOptions selects fields from structured input records.
type SourceOptions struct {
	// TextField is the record field holding document content.
	TextField string

	// IDField is the record field holding the document ID.
	IDField string
}

// SourceLoader reads raw documents from a file.
type SourceLoader interface {
	// Load reads every record from path.
	// Returns domain.ErrUnsupportedType for unknown file extensions.
	Load(ctx context.Context, path string, opts SourceOptions) ([]domain.RawDocument, error)
}

// TaxonomyLoader reads a predefined taxonomy from a file.
type TaxonomyLoader interface {
	Load(path string) (domain.Taxonomy, error)
}

// Exporter renders a completed run in one output format.
type Exporter interface {
	// Format returns the format name, e.g. "json".
	Format() string

	// Extension returns the file extension including the dot.
	Extension() string

	// Export writes the run to w.
	Export(w io.Writer, run *domain.RunResult) error
}
