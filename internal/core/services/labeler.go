package services

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driven"
	"github.com/custodia-labs/taxonomist/internal/core/prompts"
)

const labelMaxTokens = 256

// Labeler assigns one category of a finalized taxonomy to each document.
type Labeler struct {
	llm     driven.LLMService
	prompts *prompts.Renderer
}

// NewLabeler creates a labeler using llm for classification.
func NewLabeler(llm driven.LLMService, renderer *prompts.Renderer) *Labeler {
	return &Labeler{llm: llm, prompts: renderer}
}

// Label is the resolved classification of one document.
type Label struct {
	// Category is a category name or domain.OtherCategory.
	Category string

	Explanation string

	// Fallback is true when Category is the fallback.
	Fallback bool

	// Warning explains a fallback or an ambiguous answer.
	Warning string
}

// resolveLabel maps a parsed answer onto the taxonomy.
func resolveLabel(out LabelOutput, taxonomy domain.Taxonomy, docID string) Label {
	if !out.Found() {
		return Label{
			Category: domain.OtherCategory,
			Fallback: true,
			Warning:  fmt.Sprintf("No category ID returned for doc %s, using '%s'", docID, domain.OtherCategory),
		}
	}

	category, ok := taxonomy.Find(out.CategoryID)
	if !ok {
		return Label{
			Category: domain.OtherCategory,
			Fallback: true,
			Warning: fmt.Sprintf("Category ID '%s' not found in taxonomy for doc %s. Available IDs: [%s], using '%s'",
				out.CategoryID, docID, strings.Join(taxonomy.IDs(), ", "), domain.OtherCategory),
		}
	}

	label := Label{Category: category.Name, Explanation: out.Explanation}
	if out.Matches > 1 {
		label.Warning = fmt.Sprintf("Multiple category IDs returned for doc %s, using first (%s)",
			docID, out.CategoryID)
	}
	return label
}

// Classify labels one document. taxonomyText is the rendered taxonomy,
// passed in so callers labeling many documents render it once.
func (l *Labeler) Classify(
	ctx context.Context,
	doc domain.Document,
	taxonomy domain.Taxonomy,
	taxonomyText string,
) (Label, error) {
	prompt, err := l.prompts.Render(driven.PromptLabel, struct {
		Content  string
		Taxonomy string
	}{doc.Content, taxonomyText})
	if err != nil {
		return Label{}, err
	}

	text, err := l.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   labelMaxTokens,
		Temperature: 0,
	})
	if err != nil {
		return Label{}, fmt.Errorf("label document %s: %w", doc.ID, err)
	}

	return resolveLabel(ParseLabel(text), taxonomy, doc.ID), nil
}

// LabelAll labels docs concurrently and returns labeled copies in input
// order. Every document counts toward the LLM-labeled total; fallbacks
// also count as skipped and add a warning.
func (l *Labeler) LabelAll(
	ctx context.Context,
	rc *RunContext,
	docs []domain.Document,
	taxonomy domain.Taxonomy,
) ([]domain.Document, error) {
	out := make([]domain.Document, len(docs))
	copy(out, docs)
	taxonomyText := FormatTaxonomy(taxonomy)

	var done atomic.Int64
	err := rc.forEach(ctx, len(out), func(ctx context.Context, i int) error {
		if err := rc.wait(ctx); err != nil {
			return err
		}
		label, err := l.Classify(ctx, out[i], taxonomy, taxonomyText)
		if err != nil {
			return err
		}

		rc.recordLabel(label.Fallback)
		if label.Warning != "" {
			rc.Warn("%s", label.Warning)
		}

		out[i].Category = label.Category
		out[i].Explanation = label.Explanation
		out[i].LabeledBy = domain.LabelSourceLLM
		if label.Fallback {
			out[i].LabeledBy = domain.LabelSourceFallback
		}
		rc.progress(domain.StageLabeling, int(done.Add(1)), len(out))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
