package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driven"
	"github.com/custodia-labs/taxonomist/internal/core/prompts"
	"github.com/custodia-labs/taxonomist/internal/logger"
)

const taxonomyMaxTokens = 2000

// TaxonomyBuilder builds a taxonomy from sequential minibatches.
//
// Batch 1 discovers an initial category set. Every later batch revises the
// current set, with the previous snapshot as feedback. One snapshot is
// appended per batch; snapshots are never edited.
type TaxonomyBuilder struct {
	llm     driven.LLMService
	prompts *prompts.Renderer
}

// NewTaxonomyBuilder creates a builder using llm for category proposals.
func NewTaxonomyBuilder(llm driven.LLMService, renderer *prompts.Renderer) *TaxonomyBuilder {
	return &TaxonomyBuilder{llm: llm, prompts: renderer}
}

type taxonomyPromptData struct {
	UseCase                  string
	Feedback                 string
	MaxNumClusters           int
	ClusterNameLength        int
	ClusterDescriptionLength int
	ExplanationLength        int
	Data                     string
}

// Propose asks the model for a category table for one batch. previous is
// nil for discovery. The parsed result is returned as is; callers enforce
// the cap.
func (b *TaxonomyBuilder) Propose(
	ctx context.Context,
	cfg domain.RunConfig,
	previous *domain.Snapshot,
	batch []domain.Document,
) (TaxonomyOutput, error) {
	feedback := noFeedback
	if previous != nil {
		feedback = revisionFeedback(*previous)
	}

	prompt, err := b.prompts.Render(driven.PromptTaxonomy, taxonomyPromptData{
		UseCase:                  cfg.UseCase,
		Feedback:                 feedback,
		MaxNumClusters:           cfg.MaxNumClusters,
		ClusterNameLength:        cfg.ClusterNameLength,
		ClusterDescriptionLength: cfg.ClusterDescriptionLength,
		ExplanationLength:        cfg.ExplanationLength,
		Data:                     FormatDocuments(batch),
	})
	if err != nil {
		return TaxonomyOutput{}, err
	}
	system, err := b.prompts.Render(driven.PromptTaxonomySystem, struct{ UseCase string }{cfg.UseCase})
	if err != nil {
		return TaxonomyOutput{}, err
	}

	text, err := b.llm.Generate(ctx, prompt, driven.GenerateOptions{
		System:    system,
		MaxTokens: taxonomyMaxTokens,
	})
	if err != nil {
		return TaxonomyOutput{}, fmt.Errorf("generate taxonomy: %w", err)
	}

	return ParseTaxonomy(text)
}

// reservedRename replaces a proposed category named like the fallback
// label, so "Other" in a result always means unlabeled.
const reservedRename = domain.OtherCategory + " (proposed)"

func renameReserved(rc *RunContext, batchNo int, categories domain.Taxonomy) domain.Taxonomy {
	for i, c := range categories {
		if strings.EqualFold(strings.TrimSpace(c.Name), domain.OtherCategory) {
			rc.Warn("Batch %d proposed reserved category name %q, renamed to %q", batchNo, c.Name, reservedRename)
			categories[i].Name = reservedRename
		}
	}
	return categories
}

// shouldContinueRevising reports whether batches remain after processed.
func shouldContinueRevising(processed, total int) bool {
	return processed < total
}

// Build consumes every batch exactly once, in order, and returns the
// snapshot log. docs are the summarized sample the batches index into.
//
//nolint:gocyclo // state machine with one branch per transition
func (b *TaxonomyBuilder) Build(
	ctx context.Context,
	rc *RunContext,
	docs []domain.Document,
	batches []IndexRange,
) (*domain.SnapshotLog, error) {
	cfg := rc.Config()
	log := &domain.SnapshotLog{}

	if len(batches) == 0 {
		rc.Enter(domain.StageDiscovering)
		return nil, rc.Fail(fmt.Errorf("%w: no batches", domain.ErrDiscoveryFailed))
	}

	stage := domain.StageDiscovering
	for k, r := range batches {
		batchNo := k + 1
		rc.Enter(stage)
		if err := ctx.Err(); err != nil {
			return nil, rc.Fail(err)
		}

		var previous *domain.Snapshot
		if current, ok := log.Current(); ok {
			previous = &current
		}

		logger.Debug("batch %d/%d: documents %d-%d", batchNo, len(batches), r.Start, r.End-1)
		out, err := b.Propose(ctx, cfg, previous, docs[r.Start:r.End])
		var parseErr *domain.ParseError
		if err != nil && !errors.As(err, &parseErr) {
			return nil, rc.Fail(err)
		}

		categories := out.Categories
		if len(categories) > cfg.MaxNumClusters {
			rc.Warn("Batch %d proposed %d categories, truncated to %d",
				batchNo, len(categories), cfg.MaxNumClusters)
			categories = categories.Truncate(cfg.MaxNumClusters)
		}
		categories = renameReserved(rc, batchNo, categories)

		if len(categories) == 0 {
			reason := "no categories"
			if parseErr != nil {
				reason = "unparseable output"
			}

			if previous == nil {
				return nil, rc.Fail(errors.Join(
					fmt.Errorf("%w: batch %d: %s", domain.ErrDiscoveryFailed, batchNo, reason), err))
			}
			if cfg.RevisionPolicy == domain.RevisionPolicyFail {
				return nil, rc.Fail(errors.Join(
					fmt.Errorf("%w: batch %d: %s", domain.ErrRevisionFailed, batchNo, reason), err))
			}

			rc.Warn("Batch %d revision produced %s, keeping previous taxonomy", batchNo, reason)
			log.Append(domain.Snapshot{
				Batch:       batchNo,
				Categories:  previous.Categories,
				Explanation: previous.Explanation,
				Retained:    true,
			})
		} else {
			log.Append(domain.Snapshot{
				Batch:       batchNo,
				Categories:  categories,
				Explanation: out.Explanation,
			})
		}

		current, _ := log.Current()
		rc.Status("Processed batch %d/%d: %d categories", batchNo, len(batches), len(current.Categories))

		if shouldContinueRevising(batchNo, len(batches)) {
			stage = domain.StageRevising
		} else {
			stage = domain.StageReview
		}
	}

	return log, nil
}
