package driving

import (
	"context"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
)

// RunService manages completed runs.
type RunService interface {
	// Execute runs the pipeline and persists the result.
	Execute(ctx context.Context, req RunRequest) (*domain.RunResult, error)

	// List returns summaries of stored runs, newest first.
	List(ctx context.Context) ([]domain.RunSummary, error)

	// Get returns a stored run.
	Get(ctx context.Context, id string) (*domain.RunResult, error)

	// Delete removes a stored run.
	Delete(ctx context.Context, id string) error

	// LabelText classifies a single text against a stored run's taxonomy.
	LabelText(ctx context.Context, runID, text string) (*domain.Document, error)
}

// JobService runs pipelines in the background.
type JobService interface {
	// Submit queues a run and returns immediately.
	Submit(ctx context.Context, req RunRequest) (*domain.Job, error)

	// Get returns a job by ID.
	Get(id string) (*domain.Job, error)

	// List returns all tracked jobs, newest first.
	List() []domain.Job

	// Shutdown cancels running jobs and waits for them to stop.
	Shutdown()
}
