package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider, source or export format.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the LLM service is not configured or unreachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// The secondary classifier is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// Pipeline Errors.

	// ErrConfiguration indicates the run configuration is invalid.
	// Raised before any generation call is issued.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrDiscoveryFailed indicates the first batch produced no categories.
	ErrDiscoveryFailed = errors.New("taxonomy discovery produced no categories")

	// ErrRevisionFailed indicates a later batch produced no categories
	// under the fail revision policy.
	ErrRevisionFailed = errors.New("taxonomy revision produced no categories")

	// ErrUnparseable indicates generated text did not contain the expected tags.
	ErrUnparseable = errors.New("unparseable model output")

	// ErrEmptyCorpus indicates a run was started without documents.
	ErrEmptyCorpus = errors.New("no documents to process")

	// ErrJobLimit indicates the job table is full of active jobs.
	ErrJobLimit = errors.New("too many active jobs")
)

// StageError reports the pipeline stage a fatal error occurred in.
// Cancellation surfaces as a StageError wrapping context.Canceled or
// context.DeadlineExceeded.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf returns the stage recorded in err, if any.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}

// ParseError describes model output that could not be parsed.
type ParseError struct {
	// What names the expected structure, e.g. "cluster_table".
	What string

	// Snippet is a truncated copy of the offending text.
	Snippet string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %q", e.What, e.Snippet)
}

func (e *ParseError) Unwrap() error {
	return ErrUnparseable
}
