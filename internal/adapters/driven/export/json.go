package export

import (
	"encoding/json"
	"io"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
)

// JSON writes the full run result as indented JSON.
type JSON struct{}

// Format returns "json".
func (e *JSON) Format() string { return "json" }

// Extension returns ".json".
func (e *JSON) Extension() string { return ".json" }

// Export writes run to w.
func (e *JSON) Export(w io.Writer, run *domain.RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}
