package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driven"
	"github.com/custodia-labs/taxonomist/internal/core/prompts"
	"github.com/custodia-labs/taxonomist/internal/logger"
)

const summaryMaxTokens = 512

// Summarizer produces a short summary for each sampled document.
type Summarizer struct {
	llm     driven.LLMService
	prompts *prompts.Renderer
}

// NewSummarizer creates a summarizer using llm for generation.
func NewSummarizer(llm driven.LLMService, renderer *prompts.Renderer) *Summarizer {
	return &Summarizer{llm: llm, prompts: renderer}
}

// Summarize summarizes one document. Generation errors are returned;
// malformed output yields an empty summary and ok=false.
func (s *Summarizer) Summarize(ctx context.Context, doc domain.Document) (out SummaryOutput, ok bool, err error) {
	prompt, err := s.prompts.Render(driven.PromptSummarise, struct{ Content string }{doc.Content})
	if err != nil {
		return SummaryOutput{}, false, err
	}

	text, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   summaryMaxTokens,
		Temperature: 0,
	})
	if err != nil {
		return SummaryOutput{}, false, fmt.Errorf("summarise document %s: %w", doc.ID, err)
	}

	parsed, perr := ParseSummary(text)
	if perr != nil {
		logger.Debug("summary for %s unparseable: %v", doc.ID, perr)
		return SummaryOutput{}, false, nil
	}
	return parsed, true, nil
}

// SummarizeAll summarizes docs concurrently and returns copies with
// Summary set. Documents with malformed output keep an empty summary and
// fall back to their content downstream.
func (s *Summarizer) SummarizeAll(ctx context.Context, rc *RunContext, docs []domain.Document) ([]domain.Document, error) {
	out := make([]domain.Document, len(docs))
	copy(out, docs)

	var done, empty atomic.Int64
	err := rc.forEach(ctx, len(out), func(ctx context.Context, i int) error {
		if err := rc.wait(ctx); err != nil {
			return err
		}
		res, ok, err := s.Summarize(ctx, out[i])
		if err != nil {
			return err
		}
		if !ok {
			empty.Add(1)
			rc.Warn("Summary for doc %s could not be parsed, using content", out[i].ID)
		}
		// Each goroutine owns index i.
		out[i].Summary = res.Summary
		rc.progress(domain.StageSummarizing, int(done.Add(1)), len(out))
		return nil
	})
	if err != nil {
		return nil, err
	}

	rc.Status("Summarized %d documents (%d without summary)", len(out), empty.Load())
	return out, nil
}
