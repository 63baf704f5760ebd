package domain

import "time"

// JobStatus is the lifecycle state of a background run.
type JobStatus string

// Available job statuses.
const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// IsFinished returns true for completed and failed jobs.
func (s JobStatus) IsFinished() bool {
	return s == JobCompleted || s == JobFailed
}

// Job tracks a pipeline run executing in the background.
type Job struct {
	ID         string
	Status     JobStatus
	Stage      Stage
	RunID      string
	Error      string
	CreatedAt  time.Time
	StartedAt  time.Time
	FinishedAt time.Time
}
