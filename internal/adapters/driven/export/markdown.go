package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
)

// Markdown writes a human-readable report: the taxonomy with document
// counts, the category distribution, warnings and the status log.
type Markdown struct{}

// Format returns "markdown".
func (e *Markdown) Format() string { return "markdown" }

// Extension returns ".md".
func (e *Markdown) Extension() string { return ".md" }

// Export writes the report to w.
func (e *Markdown) Export(w io.Writer, run *domain.RunResult) error {
	var b strings.Builder
	meta := run.Metadata

	fmt.Fprintf(&b, "# Taxonomy report %s\n\n", run.ID)
	fmt.Fprintf(&b, "- Use case: %s\n", meta.UseCase)
	fmt.Fprintf(&b, "- Path: %s\n", meta.Path)
	fmt.Fprintf(&b, "- Documents: %d (sampled %d)\n", meta.NumDocuments, meta.SampleSize)
	fmt.Fprintf(&b, "- Categories: %d\n", meta.NumCategories)
	fmt.Fprintf(&b, "- Models: %s, %s\n", meta.Model, meta.FastModel)
	fmt.Fprintf(&b, "- Labeled by LLM: %d, by classifier: %d, skipped: %d\n",
		meta.LLMLabeledCount, meta.ClassifierLabeledCount, meta.SkippedDocumentCount)
	fmt.Fprintf(&b, "- Started: %s (took %s)\n\n", meta.StartedAt.Format("2006-01-02 15:04:05"), meta.Duration.Round(time.Millisecond))

	b.WriteString("## Taxonomy\n\n")
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"ID", "Name", "Description", "Documents"})
	for _, c := range run.Taxonomy {
		tw.AppendRow(table.Row{c.ID, c.Name, c.Description, meta.Count(c.Name)})
	}
	b.WriteString(tw.RenderMarkdown())
	b.WriteString("\n\n## Distribution\n\n")

	dist := table.NewWriter()
	dist.AppendHeader(table.Row{"Category", "Documents", "Share"})
	for _, c := range meta.CategoryCounts {
		dist.AppendRow(table.Row{c.Category, c.Count, share(c.Count, meta.NumDocuments)})
	}
	b.WriteString(dist.RenderMarkdown())
	b.WriteString("\n")

	if m := meta.ClassifierMetrics; m != nil {
		b.WriteString("\n## Classifier\n\n")
		fmt.Fprintf(&b, "- Train: accuracy %.3f, macro F1 %.3f (%d documents)\n", m.TrainAccuracy, m.TrainF1, m.TrainSize)
		fmt.Fprintf(&b, "- Test: accuracy %.3f, macro F1 %.3f (%d documents)\n", m.TestAccuracy, m.TestF1, m.TestSize)
	}

	writeList(&b, "Warnings", meta.Warnings)
	writeList(&b, "Status log", meta.StatusLog)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

func share(n, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(n)/float64(total))
}
