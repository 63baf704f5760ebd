package mcp

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driven"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driving"
)

// mockRunService is a mock implementation of driving.RunService.
type mockRunService struct {
	runs    map[string]*domain.RunResult
	labeled *domain.Document
	err     error
}

func (m *mockRunService) Execute(_ context.Context, _ driving.RunRequest) (*domain.RunResult, error) {
	return nil, m.err
}

func (m *mockRunService) List(_ context.Context) ([]domain.RunSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.RunSummary
	for _, r := range m.runs {
		out = append(out, r.Summary())
	}
	return out, nil
}

func (m *mockRunService) Get(_ context.Context, id string) (*domain.RunResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: run %s", domain.ErrNotFound, id)
	}
	return run, nil
}

func (m *mockRunService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockRunService) LabelText(_ context.Context, _, _ string) (*domain.Document, error) {
	return m.labeled, m.err
}

// mockJobService is a mock implementation of driving.JobService.
type mockJobService struct {
	mu        sync.Mutex
	submitted []driving.RunRequest
	job       *domain.Job
	err       error
}

func (m *mockJobService) Submit(_ context.Context, req driving.RunRequest) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.submitted = append(m.submitted, req)
	return m.job, nil
}

func (m *mockJobService) Get(id string) (*domain.Job, error) {
	if m.job == nil || m.job.ID != id {
		return nil, fmt.Errorf("%w: job %s", domain.ErrNotFound, id)
	}
	return m.job, nil
}

func (m *mockJobService) List() []domain.Job {
	if m.job == nil {
		return nil
	}
	return []domain.Job{*m.job}
}

func (m *mockJobService) Shutdown() {}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings domain.AppSettings
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(_ *domain.AppSettings) error { return nil }

func (m *mockSettingsService) Set(_, _ string) error { return nil }

func (m *mockSettingsService) SetCredentials(_ domain.AIProvider, _, _ string) error { return nil }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) Validate() error { return nil }

func (m *mockSettingsService) ValidateModel(_ string) error { return nil }

func (m *mockSettingsService) Keys() []string { return nil }

// mockSourceLoader is a mock implementation of driven.SourceLoader.
type mockSourceLoader struct {
	docs []domain.RawDocument
	path string
	opts driven.SourceOptions
	err  error
}

func (m *mockSourceLoader) Load(_ context.Context, path string, opts driven.SourceOptions) ([]domain.RawDocument, error) {
	m.path = path
	m.opts = opts
	return m.docs, m.err
}

// sampleRun returns a small completed run.
func sampleRun() *domain.RunResult {
	taxonomy := domain.Taxonomy{
		{ID: "1", Name: "Billing", Description: "Payments and invoices"},
		{ID: "2", Name: "Shipping", Description: "Delivery questions"},
	}
	docs := []domain.Document{
		{ID: "d1", Content: "refund please", Category: "Billing", LabeledBy: domain.LabelSourceLLM},
		{ID: "d2", Content: "where is my parcel", Category: "Shipping", LabeledBy: domain.LabelSourceLLM},
		{ID: "d3", Content: "double charge", Category: "Billing", LabeledBy: domain.LabelSourceClassifier},
	}
	return &domain.RunResult{
		ID:       "run-1",
		Taxonomy: taxonomy,
		Snapshots: []domain.Snapshot{
			{Batch: 1, Categories: taxonomy[:1]},
			{Batch: 2, Categories: taxonomy},
		},
		Documents: docs,
		Metadata: domain.RunMetadata{
			Path:           domain.PathDiscovery,
			NumDocuments:   3,
			NumCategories:  2,
			UseCase:        "support tickets",
			CategoryCounts: domain.CountCategories(docs),
		},
	}
}
