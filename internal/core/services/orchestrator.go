package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driven"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driving"
	"github.com/custodia-labs/taxonomist/internal/core/prompts"
	"github.com/custodia-labs/taxonomist/internal/logger"
)

// Ensure Orchestrator implements the interface.
var _ driving.Pipeline = (*Orchestrator)(nil)

// Orchestrator runs the taxonomy pipeline:
// sample → summarize → batch → build → review → label → result.
// It keeps no state between runs; concurrent Runs are independent.
type Orchestrator struct {
	models   driven.ModelProvider
	prompts  *prompts.Renderer
	reviewer TaxonomyReviewer
	now      func() time.Time
	newID    func() string
}

// NewOrchestrator creates an orchestrator. promptStore may be nil to use
// the built-in prompts.
func NewOrchestrator(models driven.ModelProvider, promptStore driven.PromptStore) *Orchestrator {
	return &Orchestrator{
		models:   models,
		prompts:  prompts.NewRenderer(promptStore),
		reviewer: PassThroughReviewer{},
		now:      time.Now,
		newID:    func() string { return ulid.Make().String() },
	}
}

// SetReviewer replaces the pass-through reviewer.
func (o *Orchestrator) SetReviewer(r TaxonomyReviewer) {
	o.reviewer = r
}

// runModels are the services resolved for one run.
type runModels struct {
	taxonomy driven.LLMService
	fast     driven.LLMService
	embedder driven.EmbeddingService
}

// Run executes one pipeline run.
//
//nolint:gocyclo,funlen // Orchestration function with necessary sequential steps
func (o *Orchestrator) Run(ctx context.Context, req driving.RunRequest) (*domain.RunResult, error) {
	cfg := req.Config

	// 1. Fail fast on configuration before any generation call
	if err := cfg.Validate(); err != nil {
		return nil, &domain.StageError{Stage: domain.StageNotStarted, Err: err}
	}
	if len(req.Documents) == 0 {
		return nil, &domain.StageError{Stage: domain.StageNotStarted, Err: domain.ErrEmptyCorpus}
	}
	models, err := o.resolveModels(cfg)
	if err != nil {
		return nil, &domain.StageError{Stage: domain.StageNotStarted, Err: err}
	}

	rc := NewRunContext(cfg, req.Observer)
	started := o.now()
	corpus := make([]domain.Document, len(req.Documents))
	copy(corpus, req.Documents)

	logger.Info("Starting run: %d documents, path %s", len(corpus), cfg.Path())

	// 2. Build or adopt the taxonomy
	var (
		log     *domain.SnapshotLog
		final   domain.Snapshot
		sample  []domain.Document
		batches []IndexRange
	)

	switch cfg.Path() {
	case domain.PathDirectLabel:
		log = &domain.SnapshotLog{}
		log.Append(domain.Snapshot{Batch: 0, Categories: cfg.PredefinedTaxonomy})
		final, _ = log.Current()
		rc.Status("Using predefined taxonomy with %d categories", len(final.Categories))

	case domain.PathDiscovery:
		rc.Enter(domain.StageSampling)
		sample = Sample(corpus, cfg.SampleSize, newRand(cfg.Seed))
		rc.Status("Sampled %d of %d documents", len(sample), len(corpus))

		rc.Enter(domain.StageSummarizing)
		sample, err = NewSummarizer(models.fast, o.prompts).SummarizeAll(ctx, rc, sample)
		if err != nil {
			return nil, o.fail(ctx, rc, err)
		}

		batches, err = MakeBatches(len(sample), cfg.BatchSize)
		if err != nil {
			return nil, o.fail(ctx, rc, err)
		}
		rc.Status("Split sample into %d batches of up to %d documents", len(batches), cfg.BatchSize)

		log, err = NewTaxonomyBuilder(models.taxonomy, o.prompts).Build(ctx, rc, sample, batches)
		if err != nil {
			return nil, o.fail(ctx, rc, err)
		}

		rc.Enter(domain.StageReview)
		current, _ := log.Current()
		final, err = o.reviewer.Review(ctx, cfg, current)
		if err != nil {
			return nil, o.fail(ctx, rc, fmt.Errorf("review taxonomy: %w", err))
		}
		rc.Status("Reviewed taxonomy: %d categories", len(final.Categories))
	}

	rc.Enter(domain.StageFinalized)
	taxonomy := final.Categories

	// 3. Label the full corpus, carrying summaries from the sample
	rc.Enter(domain.StageLabeling)
	summaries := make(map[string]string, len(sample))
	for _, d := range sample {
		summaries[d.ID] = d.Summary
	}
	for i := range corpus {
		corpus[i].Summary = summaries[corpus[i].ID]
	}

	labeled, metrics, err := o.label(ctx, rc, models, corpus, sample, taxonomy)
	if err != nil {
		return nil, o.fail(ctx, rc, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, rc.Fail(err)
	}

	// 4. Assemble the result
	rc.Enter(domain.StageCompleted)
	stats := rc.Stats()
	rc.Status("Labeled %d documents: %d by LLM, %d by classifier, %d fallback",
		len(labeled), stats.LLMLabeled, stats.ClassifierLabeled, stats.Skipped)

	result := &domain.RunResult{
		ID:        o.newID(),
		Taxonomy:  taxonomy.Clone(),
		Snapshots: log.All(),
		Documents: labeled,
		Metadata: domain.RunMetadata{
			Path:                   cfg.Path(),
			NumDocuments:           len(labeled),
			NumCategories:          len(taxonomy),
			SampleSize:             len(sample),
			BatchSize:              cfg.BatchSize,
			NumBatches:             len(batches),
			MaxNumClusters:         cfg.MaxNumClusters,
			UseCase:                cfg.UseCase,
			Model:                  cfg.Model,
			FastModel:              cfg.FastModel,
			LLMLabeledCount:        stats.LLMLabeled,
			ClassifierLabeledCount: stats.ClassifierLabeled,
			SkippedDocumentCount:   stats.Skipped,
			CategoryCounts:         domain.CountCategories(labeled),
			ClassifierMetrics:      metrics,
			Warnings:               rc.Warnings(),
			StatusLog:              rc.StatusLog(),
			StartedAt:              started,
			Duration:               o.now().Sub(started),
		},
	}

	logger.Info("Run %s completed in %s", result.ID, result.Metadata.Duration)
	return result, nil
}

// label assigns a category to every corpus document. With the classifier
// enabled, only the sample is LLM-labeled; the classifier extends those
// labels and low-confidence predictions go back to the LLM.
func (o *Orchestrator) label(
	ctx context.Context,
	rc *RunContext,
	models runModels,
	corpus, sample []domain.Document,
	taxonomy domain.Taxonomy,
) ([]domain.Document, *domain.ClassifierMetrics, error) {
	cfg := rc.Config()
	labeler := NewLabeler(models.fast, o.prompts)

	if !cfg.Classifier.Enabled || models.embedder == nil {
		labeled, err := labeler.LabelAll(ctx, rc, corpus, taxonomy)
		return labeled, nil, err
	}

	if sample == nil {
		sample = Sample(corpus, cfg.SampleSize, newRand(cfg.Seed))
	}
	if len(sample) >= len(corpus) {
		labeled, err := labeler.LabelAll(ctx, rc, corpus, taxonomy)
		return labeled, nil, err
	}

	inSample := make(map[string]struct{}, len(sample))
	for _, d := range sample {
		inSample[d.ID] = struct{}{}
	}
	var head, rest []domain.Document
	for _, d := range corpus {
		if _, ok := inSample[d.ID]; ok {
			head = append(head, d)
		} else {
			rest = append(rest, d)
		}
	}

	headLabeled, err := labeler.LabelAll(ctx, rc, head, taxonomy)
	if err != nil {
		return nil, nil, err
	}
	rc.Status("Labeled %d sampled documents with LLM", len(headLabeled))

	res, err := NewClassifier(models.embedder).Extend(ctx, rc, headLabeled, rest, taxonomy)
	if err != nil {
		return nil, nil, err
	}

	deferred, err := labeler.LabelAll(ctx, rc, res.Deferred, taxonomy)
	if err != nil {
		return nil, nil, err
	}

	byID := make(map[string]domain.Document, len(corpus))
	for _, group := range [][]domain.Document{headLabeled, res.Classified, deferred} {
		for _, d := range group {
			byID[d.ID] = d
		}
	}
	out := make([]domain.Document, 0, len(corpus))
	for _, d := range corpus {
		labeled, ok := byID[d.ID]
		if !ok {
			return nil, nil, fmt.Errorf("document %s was not labeled", d.ID)
		}
		out = append(out, labeled)
	}
	return out, res.Metrics, nil
}

// resolveModels looks up every service the configured path needs.
func (o *Orchestrator) resolveModels(cfg domain.RunConfig) (runModels, error) {
	var m runModels
	var err error

	if o.models == nil {
		return m, domain.ErrLLMUnavailable
	}
	if m.fast, err = o.models.LLM(cfg.FastModel); err != nil {
		return m, fmt.Errorf("fast model %s: %w", cfg.FastModel, err)
	}
	if cfg.Path() == domain.PathDiscovery {
		if m.taxonomy, err = o.models.LLM(cfg.Model); err != nil {
			return m, fmt.Errorf("model %s: %w", cfg.Model, err)
		}
	}
	if cfg.Classifier.Enabled {
		if m.embedder, err = o.models.Embedding(cfg.Classifier.EmbeddingModel); err != nil {
			return m, fmt.Errorf("embedding model %s: %w", cfg.Classifier.EmbeddingModel, err)
		}
	}
	return m, nil
}

// fail attaches the current stage to err. Cancellation is reported as the
// context error so callers can test for it with errors.Is.
func (o *Orchestrator) fail(ctx context.Context, rc *RunContext, err error) error {
	var se *domain.StageError
	if errors.As(err, &se) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = fmt.Errorf("%w: %w", ctxErr, err)
	}
	return rc.Fail(err)
}
