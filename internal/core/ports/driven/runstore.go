package driven

import (
	"context"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
)

// RunStore persists completed runs.
type RunStore interface {
	// Save stores a completed run, replacing any run with the same ID.
	Save(ctx context.Context, run *domain.RunResult) error

	// Get returns a run with its taxonomy, snapshots and documents.
	// Returns domain.ErrNotFound if the run does not exist.
	Get(ctx context.Context, id string) (*domain.RunResult, error)

	// List returns summaries of all runs, newest first.
	List(ctx context.Context) ([]domain.RunSummary, error)

	// Delete removes a run. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id string) error
}
