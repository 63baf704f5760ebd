package services

import (
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
)

// Model output is tagged text. Parsing tolerates any text around and
// between tags and ignores unknown tags. Tags are matched case-insensitively.

var (
	clusterTableRe = regexp.MustCompile(`(?is)<cluster_table>(.*?)</cluster_table>`)
	clusterRe      = regexp.MustCompile(`(?is)<cluster>(.*?)</cluster>`)
	categoryIDRe   = regexp.MustCompile(`(?is)<category_id>\s*(.*?)\s*</category_id>`)
	numericIDRe    = regexp.MustCompile(`^\d+$`)

	tagPatterns = compileTags("id", "name", "description", "summary", "explanation")
)

func compileTags(tags ...string) map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(tags))
	for _, tag := range tags {
		out[tag] = regexp.MustCompile(`(?is)<` + tag + `>(.*?)</` + tag + `>`)
	}
	return out
}

const snippetLength = 200

// TaxonomyOutput is a parsed category proposal.
type TaxonomyOutput struct {
	// Categories are in output order with sequential IDs from "1".
	Categories domain.Taxonomy

	// Explanation is the model's rationale, possibly empty.
	Explanation string
}

// ParseTaxonomy extracts a category table. It returns a *domain.ParseError
// when the text holds neither a <cluster_table> nor any <cluster> element.
// A table with no usable clusters is a valid, empty result.
func ParseTaxonomy(text string) (TaxonomyOutput, error) {
	body := text
	if m := clusterTableRe.FindStringSubmatch(text); m != nil {
		body = m[1]
	} else if !clusterRe.MatchString(text) {
		return TaxonomyOutput{}, &domain.ParseError{What: "cluster_table", Snippet: snippet(text)}
	}

	var raw []domain.Category
	for _, m := range clusterRe.FindAllStringSubmatch(body, -1) {
		raw = append(raw, domain.Category{
			ID:          tagValue(m[1], "id"),
			Name:        tagValue(m[1], "name"),
			Description: tagValue(m[1], "description"),
		})
	}

	return TaxonomyOutput{
		Categories:  domain.NewTaxonomy(raw),
		Explanation: tagValue(text, "explanation"),
	}, nil
}

// SummaryOutput is a parsed document summary.
type SummaryOutput struct {
	Summary     string
	Explanation string
}

// ParseSummary extracts <summary> and <explanation>. A missing <summary>
// is a *domain.ParseError.
func ParseSummary(text string) (SummaryOutput, error) {
	summary, ok := findTag(text, "summary")
	if !ok {
		return SummaryOutput{}, &domain.ParseError{What: "summary", Snippet: snippet(text)}
	}
	return SummaryOutput{
		Summary:     summary,
		Explanation: tagValue(text, "explanation"),
	}, nil
}

// LabelOutput is a parsed classification.
type LabelOutput struct {
	// CategoryID is the first numeric identifier, empty when absent.
	CategoryID string

	// Matches is the number of <category_id> tags found.
	Matches int

	Explanation string
}

// Found returns true when a numeric identifier was present.
func (l LabelOutput) Found() bool {
	return l.CategoryID != ""
}

// ParseLabel extracts the first numeric <category_id>. Absence is reported
// through Found, never as an error; non-numeric values count as absent.
func ParseLabel(text string) LabelOutput {
	out := LabelOutput{Explanation: tagValue(text, "explanation")}

	matches := categoryIDRe.FindAllStringSubmatch(text, -1)
	out.Matches = len(matches)
	for _, m := range matches {
		if id := strings.TrimSpace(m[1]); numericIDRe.MatchString(id) {
			out.CategoryID = strings.TrimLeft(id, "0")
			if out.CategoryID == "" {
				out.CategoryID = "0"
			}
			break
		}
	}
	return out
}

// findTag returns the trimmed, unescaped content of the first <tag>.
func findTag(text, tag string) (string, bool) {
	m := tagPatterns[tag].FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(html.UnescapeString(m[1])), true
}

func tagValue(text, tag string) string {
	v, _ := findTag(text, tag)
	return v
}

func snippet(text string) string {
	text = strings.TrimSpace(text)
	if len(text) > snippetLength {
		return text[:snippetLength] + "..."
	}
	return text
}
