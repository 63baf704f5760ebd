package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// OtherCategory is the fallback label for documents that could not be
// classified against the taxonomy.
const OtherCategory = "Other"

// LabelSource records which component assigned a document's category.
type LabelSource string

// Available label sources.
const (
	LabelSourceNone       LabelSource = ""
	LabelSourceLLM        LabelSource = "llm"
	LabelSourceClassifier LabelSource = "classifier"
	LabelSourceFallback   LabelSource = "fallback"
)

// RawDocument is an input record as produced by a data source.
// ID may be empty, in which case a sequential one is assigned.
type RawDocument struct {
	ID      string
	Content string
}

// Document is a corpus record flowing through a pipeline run.
// Content never changes after creation; the other fields are derived.
type Document struct {
	// ID is unique within the corpus.
	ID string `json:"id"`

	// Content is the raw document text.
	Content string `json:"content"`

	// Summary is set by the summarizer for sampled documents.
	Summary string `json:"summary,omitempty"`

	// Category is the resolved category name set by the labeler.
	Category string `json:"category"`

	// Explanation is the labeler's rationale, when one was returned.
	Explanation string `json:"explanation,omitempty"`

	// LabeledBy records the provenance of Category.
	LabeledBy LabelSource `json:"labeled_by,omitempty"`
}

// Text returns the summary, falling back to the raw content.
func (d Document) Text() string {
	if strings.TrimSpace(d.Summary) != "" {
		return d.Summary
	}
	return d.Content
}

// IsLabeled returns true once a category has been assigned.
func (d Document) IsLabeled() bool {
	return d.Category != ""
}

// NewDocuments normalises raw records into documents.
// Records without an ID get their 1-based position as ID.
// Empty content and duplicate IDs are rejected.
func NewDocuments(raw []RawDocument) ([]Document, error) {
	docs := make([]Document, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))

	for i, r := range raw {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		if strings.TrimSpace(r.Content) == "" {
			return nil, fmt.Errorf("%w: document %s has empty content", ErrInvalidInput, id)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: duplicate document id %s", ErrInvalidInput, id)
		}
		seen[id] = struct{}{}
		docs = append(docs, Document{ID: id, Content: r.Content})
	}

	return docs, nil
}
