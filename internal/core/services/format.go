package services

import (
	"strings"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
)

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// FormatTaxonomy renders categories as a <cluster_table>, the same shape
// the taxonomy parser reads.
func FormatTaxonomy(t domain.Taxonomy) string {
	var b strings.Builder
	b.WriteString("<cluster_table>\n")
	for _, c := range t {
		b.WriteString("  <cluster>\n")
		b.WriteString("    <id>" + xmlEscaper.Replace(c.ID) + "</id>\n")
		b.WriteString("    <name>" + xmlEscaper.Replace(c.Name) + "</name>\n")
		b.WriteString("    <description>" + xmlEscaper.Replace(c.Description) + "</description>\n")
		b.WriteString("  </cluster>\n")
	}
	b.WriteString("</cluster_table>")
	return b.String()
}

// FormatDocuments renders documents for a taxonomy prompt, using each
// summary or falling back to the content.
func FormatDocuments(docs []domain.Document) string {
	var b strings.Builder
	for i, d := range docs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("<document>\n")
		b.WriteString("  <id>" + xmlEscaper.Replace(d.ID) + "</id>\n")
		b.WriteString("  <text>" + xmlEscaper.Replace(strings.TrimSpace(d.Text())) + "</text>\n")
		b.WriteString("</document>")
	}
	return b.String()
}

const noFeedback = "No previous taxonomy. Build the initial one from this data."

// revisionFeedback renders the previous snapshot as context for a revision.
func revisionFeedback(prev domain.Snapshot) string {
	var b strings.Builder
	b.WriteString("Below is the taxonomy built from earlier data. ")
	b.WriteString("Consider these existing categories first: keep those that fit the new data, ")
	b.WriteString("revise or merge those that do not, and add categories only where needed.\n")
	b.WriteString(FormatTaxonomy(prev.Categories))
	if prev.Explanation != "" {
		b.WriteString("\nPrevious reasoning: ")
		b.WriteString(prev.Explanation)
	}
	return b.String()
}
