package export

import (
	"encoding/csv"
	"io"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
)

// CSV writes one row per labeled document.
type CSV struct{}

// Format returns "csv".
func (e *CSV) Format() string { return "csv" }

// Extension returns ".csv".
func (e *CSV) Extension() string { return ".csv" }

// Export writes an id, category, content table in corpus order.
func (e *CSV) Export(w io.Writer, run *domain.RunResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "category", "content"}); err != nil {
		return err
	}
	for _, d := range run.Documents {
		if err := cw.Write([]string{d.ID, d.Category, d.Content}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
