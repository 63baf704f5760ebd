package services

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driving"
	"github.com/custodia-labs/taxonomist/internal/logger"
)

// RunContext holds the mutable state of one pipeline run.
// It is passed explicitly to every stage; nothing is shared between runs.
// All methods are safe for concurrent use.
type RunContext struct {
	cfg      domain.RunConfig
	observer driving.Observer
	limiter  *rate.Limiter

	mu                sync.Mutex
	stage             domain.Stage
	warnings          []string
	statusLog         []string
	llmLabeled        int
	classifierLabeled int
	skipped           int
}

// NewRunContext creates the state for one run. observer may be nil.
func NewRunContext(cfg domain.RunConfig, observer driving.Observer) *RunContext {
	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		burst = max(1, cfg.Concurrency)
	}

	return &RunContext{
		cfg:      cfg,
		observer: observer,
		limiter:  rate.NewLimiter(limit, burst),
		stage:    domain.StageNotStarted,
	}
}

// Config returns the run configuration.
func (rc *RunContext) Config() domain.RunConfig {
	return rc.cfg
}

// Enter records a stage transition.
func (rc *RunContext) Enter(stage domain.Stage) {
	rc.mu.Lock()
	rc.stage = stage
	rc.mu.Unlock()

	logger.Section(string(stage))
	if rc.observer != nil {
		rc.observer.OnStage(stage)
	}
}

// Stage returns the current stage.
func (rc *RunContext) Stage() domain.Stage {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.stage
}

// Fail wraps err with the current stage.
func (rc *RunContext) Fail(err error) error {
	return &domain.StageError{Stage: rc.Stage(), Err: err}
}

// Warn appends a warning.
func (rc *RunContext) Warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	rc.mu.Lock()
	rc.warnings = append(rc.warnings, msg)
	rc.mu.Unlock()
	logger.Info("Warning: %s", msg)
}

// Status appends a status log entry.
func (rc *RunContext) Status(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	rc.mu.Lock()
	rc.statusLog = append(rc.statusLog, msg)
	rc.mu.Unlock()
	logger.Info("%s", msg)
	if rc.observer != nil {
		rc.observer.OnStatus(msg)
	}
}

// progress reports per-document completion.
func (rc *RunContext) progress(stage domain.Stage, done, total int) {
	if rc.observer != nil {
		rc.observer.OnDocument(stage, done, total)
	}
}

// recordLabel updates the labeling counters for one LLM-processed document.
func (rc *RunContext) recordLabel(fallback bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.llmLabeled++
	if fallback {
		rc.skipped++
	}
}

// recordClassified adds n classifier-labeled documents.
func (rc *RunContext) recordClassified(n int) {
	rc.mu.Lock()
	rc.classifierLabeled += n
	rc.mu.Unlock()
}

// LabelStats is a snapshot of the labeling counters.
type LabelStats struct {
	LLMLabeled        int
	ClassifierLabeled int
	Skipped           int
}

// Stats returns the labeling counters.
func (rc *RunContext) Stats() LabelStats {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return LabelStats{
		LLMLabeled:        rc.llmLabeled,
		ClassifierLabeled: rc.classifierLabeled,
		Skipped:           rc.skipped,
	}
}

// Warnings returns a copy of the warnings.
func (rc *RunContext) Warnings() []string {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return append([]string(nil), rc.warnings...)
}

// StatusLog returns a copy of the status log.
func (rc *RunContext) StatusLog() []string {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return append([]string(nil), rc.statusLog...)
}

// wait blocks until the rate limiter admits one generation call.
func (rc *RunContext) wait(ctx context.Context) error {
	return rc.limiter.Wait(ctx)
}

// forEach runs fn for every index in [0, n) with at most Concurrency
// calls in flight. The first error cancels the remaining calls.
func (rc *RunContext) forEach(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, rc.cfg.Concurrency))

	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return fn(gctx, i)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
