package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driving"
	"github.com/custodia-labs/taxonomist/internal/logger"
)

// Ensure JobService implements the interface.
var _ driving.JobService = (*JobService)(nil)

// DefaultMaxJobs is the number of jobs tracked before finished ones are evicted.
const DefaultMaxJobs = 100

// JobService runs pipelines on background goroutines so callers such as the
// MCP server can poll for completion.
type JobService struct {
	runs    driving.RunService
	maxJobs int
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.RWMutex
	jobs map[string]*domain.Job
}

// NewJobService creates a job service backed by runs.
// maxJobs <= 0 uses DefaultMaxJobs.
func NewJobService(runs driving.RunService, maxJobs int) *JobService {
	if maxJobs <= 0 {
		maxJobs = DefaultMaxJobs
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &JobService{
		runs:    runs,
		maxJobs: maxJobs,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
		jobs:    make(map[string]*domain.Job),
	}
}

// Submit queues a run and returns immediately. The run is detached from
// ctx; only Shutdown cancels it.
func (s *JobService) Submit(ctx context.Context, req driving.RunRequest) (*domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := req.Config.Validate(); err != nil {
		return nil, err
	}
	if s.ctx.Err() != nil {
		return nil, errors.New("job service is shut down")
	}

	job := &domain.Job{
		ID:        uuid.New().String(),
		Status:    domain.JobPending,
		Stage:     domain.StageNotStarted,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	if len(s.jobs) >= s.maxJobs && !s.evictLocked() {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: limit is %d", domain.ErrJobLimit, s.maxJobs)
	}
	s.jobs[job.ID] = job
	snapshot := *job
	s.mu.Unlock()

	req.Observer = &jobObserver{service: s, id: job.ID, next: req.Observer}

	s.wg.Add(1)
	go s.execute(job.ID, req)

	logger.Info("Submitted job %s", job.ID)
	return &snapshot, nil
}

func (s *JobService) execute(id string, req driving.RunRequest) {
	defer s.wg.Done()

	s.update(id, func(j *domain.Job) {
		j.Status = domain.JobRunning
		j.StartedAt = s.now()
	})

	result, err := s.runs.Execute(s.ctx, req)

	s.update(id, func(j *domain.Job) {
		j.FinishedAt = s.now()
		if result != nil {
			j.RunID = result.ID
		}
		if err != nil {
			j.Status = domain.JobFailed
			j.Error = err.Error()
			if stage, ok := domain.StageOf(err); ok {
				j.Stage = stage
			}
			return
		}
		j.Status = domain.JobCompleted
		j.Stage = domain.StageCompleted
	})

	if err != nil {
		logger.Warn("Job %s failed: %v", id, err)
		return
	}
	logger.Info("Job %s completed: run %s", id, result.ID)
}

// Get returns a job by ID.
func (s *JobService) Get(id string) (*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	snapshot := *job
	return &snapshot, nil
}

// List returns all tracked jobs, newest first.
func (s *JobService) List() []domain.Job {
	s.mu.RLock()
	jobs := make([]domain.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, *j)
	}
	s.mu.RUnlock()

	sort.Slice(jobs, func(a, b int) bool {
		return jobs[a].CreatedAt.After(jobs[b].CreatedAt)
	})
	return jobs
}

// Shutdown cancels running jobs and waits for them to stop.
func (s *JobService) Shutdown() {
	s.cancel()
	s.wg.Wait()
}

func (s *JobService) update(id string, fn func(*domain.Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		fn(job)
	}
}

// evictLocked removes the oldest finished job. Returns false when every
// tracked job is still active.
func (s *JobService) evictLocked() bool {
	var oldest *domain.Job
	for _, j := range s.jobs {
		if !j.Status.IsFinished() {
			continue
		}
		if oldest == nil || j.FinishedAt.Before(oldest.FinishedAt) {
			oldest = j
		}
	}
	if oldest == nil {
		return false
	}
	delete(s.jobs, oldest.ID)
	logger.Debug("Evicted job %s", oldest.ID)
	return true
}

// jobObserver tracks the current stage of a job and forwards events.
type jobObserver struct {
	service *JobService
	id      string
	next    driving.Observer
}

func (o *jobObserver) OnStage(stage domain.Stage) {
	o.service.update(o.id, func(j *domain.Job) { j.Stage = stage })
	if o.next != nil {
		o.next.OnStage(stage)
	}
}

func (o *jobObserver) OnStatus(message string) {
	if o.next != nil {
		o.next.OnStatus(message)
	}
}

func (o *jobObserver) OnDocument(stage domain.Stage, done, total int) {
	if o.next != nil {
		o.next.OnDocument(stage, done, total)
	}
}
