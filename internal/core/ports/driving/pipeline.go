package driving

import (
	"context"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
)

// Observer receives progress notifications from a running pipeline.
// Calls happen on the pipeline's goroutine, except OnDocument which may
// be called concurrently.
type Observer interface {
	// OnStage is called when the pipeline enters a stage.
	OnStage(stage domain.Stage)

	// OnStatus is called for every status log entry.
	OnStatus(message string)

	// OnDocument is called when a per-document step completes.
	OnDocument(stage domain.Stage, done, total int)
}

// RunRequest is the input of one pipeline run.
type RunRequest struct {
	// Documents is the full corpus.
	Documents []domain.Document

	// Config is threaded through every stage.
	Config domain.RunConfig

	// Observer is optional.
	Observer Observer
}

// Pipeline generates a taxonomy and labels a corpus.
type Pipeline interface {
	// Run executes one pipeline run. A failed or cancelled run returns no
	// result and an error carrying the failing stage (see domain.StageOf).
	Run(ctx context.Context, req RunRequest) (*domain.RunResult, error)
}
