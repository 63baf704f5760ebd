package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driven"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driving"
	"github.com/custodia-labs/taxonomist/internal/core/prompts"
	"github.com/custodia-labs/taxonomist/internal/logger"
)

// Ensure RunService implements the interface.
var _ driving.RunService = (*RunService)(nil)

// RunService executes pipeline runs and manages their stored results.
type RunService struct {
	pipeline driving.Pipeline
	store    driven.RunStore
	models   driven.ModelProvider
	prompts  *prompts.Renderer
}

// NewRunService creates a run service. store may be nil, in which case
// results are returned but not persisted.
func NewRunService(
	pipeline driving.Pipeline,
	store driven.RunStore,
	models driven.ModelProvider,
	promptStore driven.PromptStore,
) *RunService {
	return &RunService{
		pipeline: pipeline,
		store:    store,
		models:   models,
		prompts:  prompts.NewRenderer(promptStore),
	}
}

// Execute runs the pipeline and persists the result.
func (s *RunService) Execute(ctx context.Context, req driving.RunRequest) (*domain.RunResult, error) {
	result, err := s.pipeline.Run(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		if err := s.store.Save(ctx, result); err != nil {
			return result, fmt.Errorf("save run %s: %w", result.ID, err)
		}
		logger.Debug("Saved run %s", result.ID)
	}
	return result, nil
}

// List returns summaries of stored runs, newest first.
func (s *RunService) List(ctx context.Context) ([]domain.RunSummary, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.List(ctx)
}

// Get returns a stored run.
func (s *RunService) Get(ctx context.Context, id string) (*domain.RunResult, error) {
	if s.store == nil {
		return nil, domain.ErrNotFound
	}
	return s.store.Get(ctx, id)
}

// Delete removes a stored run.
func (s *RunService) Delete(ctx context.Context, id string) error {
	if s.store == nil {
		return domain.ErrNotFound
	}
	return s.store.Delete(ctx, id)
}

// LabelText classifies a single text against a stored run's taxonomy using
// the run's fast model. Unresolvable answers fall back to "Other".
func (s *RunService) LabelText(ctx context.Context, runID, text string) (*domain.Document, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is empty", domain.ErrInvalidInput)
	}

	run, err := s.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(run.Taxonomy) == 0 {
		return nil, fmt.Errorf("%w: run %s has no taxonomy", domain.ErrInvalidInput, runID)
	}
	if s.models == nil {
		return nil, domain.ErrLLMUnavailable
	}

	model := run.Metadata.FastModel
	if model == "" {
		model = domain.DefaultFastModel
	}
	llm, err := s.models.LLM(model)
	if err != nil {
		return nil, fmt.Errorf("fast model %s: %w", model, err)
	}

	doc := domain.Document{ID: "1", Content: text}
	label, err := NewLabeler(llm, s.prompts).Classify(ctx, doc, run.Taxonomy, FormatTaxonomy(run.Taxonomy))
	if err != nil {
		return nil, err
	}
	if label.Warning != "" {
		logger.Warn("%s", label.Warning)
	}

	doc.Category = label.Category
	doc.Explanation = label.Explanation
	doc.LabeledBy = domain.LabelSourceLLM
	if label.Fallback {
		doc.LabeledBy = domain.LabelSourceFallback
	}
	return &doc, nil
}
