package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driven"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driving"
)

// defaultDocumentLimit bounds get_documents pages.
const defaultDocumentLimit = 50

// DocumentInput is one inline document for start_run.
type DocumentInput struct {
	ID   string `json:"id,omitempty" jsonschema:"document identifier (defaults to its 1-based position)"`
	Text string `json:"text" jsonschema:"document content"`
}

// CategoryInput is one predefined category for start_run.
type CategoryInput struct {
	Name        string `json:"name" jsonschema:"short category label"`
	Description string `json:"description,omitempty" jsonschema:"what belongs in the category"`
}

// StartRunInput is the input schema for the start_run tool.
type StartRunInput struct {
	SourcePath  string          `json:"source_path,omitempty" jsonschema:"path to a .jsonl, .json, .csv, .yaml or .txt file, or a directory"`
	Documents   []DocumentInput `json:"documents,omitempty" jsonschema:"inline documents, used when source_path is empty"`
	TextField   string          `json:"text_field,omitempty" jsonschema:"record field holding document text (default text)"`
	UseCase     string          `json:"use_case,omitempty" jsonschema:"what the taxonomy is for"`
	Categories  []CategoryInput `json:"categories,omitempty" jsonschema:"predefined taxonomy; skips discovery when given"`
	SampleSize  *int            `json:"sample_size,omitempty" jsonschema:"documents to sample for discovery (0 = all)"`
	BatchSize   int             `json:"batch_size,omitempty" jsonschema:"documents per minibatch"`
	MaxClusters int             `json:"max_clusters,omitempty" jsonschema:"maximum number of categories"`
	Model       string          `json:"model,omitempty" jsonschema:"taxonomy model as provider/model"`
	FastModel   string          `json:"fast_model,omitempty" jsonschema:"summary and label model as provider/model"`
}

// JobOutput describes a background run.
type JobOutput struct {
	JobID      string `json:"job_id"`
	Status     string `json:"status"`
	Stage      string `json:"stage,omitempty"`
	RunID      string `json:"run_id,omitempty"`
	Error      string `json:"error,omitempty"`
	CreatedAt  string `json:"created_at"`
	FinishedAt string `json:"finished_at,omitempty"`
}

// JobStatusInput is the input schema for the job_status tool.
type JobStatusInput struct {
	JobID string `json:"job_id" jsonschema:"job identifier returned by start_run"`
}

// ListRunsInput is the input schema for the list_runs tool.
type ListRunsInput struct{}

// ListRunsOutput is the output schema for the list_runs tool.
type ListRunsOutput struct {
	Runs  []domain.RunSummary `json:"runs"`
	Count int                 `json:"count"`
}

// GetTaxonomyInput is the input schema for the get_taxonomy tool.
type GetTaxonomyInput struct {
	RunID string `json:"run_id" jsonschema:"run identifier"`
	Batch int    `json:"batch,omitempty" jsonschema:"snapshot batch number; omit for the final taxonomy"`
}

// CategoryOutput is a category with its document count.
type CategoryOutput struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Documents   int    `json:"documents"`
}

// GetTaxonomyOutput is the output schema for the get_taxonomy tool.
type GetTaxonomyOutput struct {
	RunID      string           `json:"run_id"`
	Batch      int              `json:"batch,omitempty"`
	Categories []CategoryOutput `json:"categories"`
	Snapshots  int              `json:"snapshots"`
}

// GetDocumentsInput is the input schema for the get_documents tool.
type GetDocumentsInput struct {
	RunID    string `json:"run_id" jsonschema:"run identifier"`
	Category string `json:"category,omitempty" jsonschema:"only documents labeled with this category name"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of documents (default 50)"`
	Offset   int    `json:"offset,omitempty" jsonschema:"documents to skip"`
}

// GetDocumentsOutput is the output schema for the get_documents tool.
type GetDocumentsOutput struct {
	Documents []domain.Document `json:"documents"`
	Total     int               `json:"total"`
}

// LabelTextInput is the input schema for the label_text tool.
type LabelTextInput struct {
	RunID string `json:"run_id" jsonschema:"run whose taxonomy is used"`
	Text  string `json:"text" jsonschema:"text to classify"`
}

// LabelTextOutput is the output schema for the label_text tool.
type LabelTextOutput struct {
	Category    string `json:"category"`
	Explanation string `json:"explanation,omitempty"`
	LabeledBy   string `json:"labeled_by"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "start_run",
		Description: "Start a background taxonomy run over a file, directory or inline documents. Returns a job to poll with job_status.",
	}, s.handleStartRun)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "job_status",
		Description: "Get the status and current stage of a background run",
	}, s.handleJobStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_runs",
		Description: "List stored runs, newest first",
	}, s.handleListRuns)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_taxonomy",
		Description: "Get the final taxonomy of a run, or one of its intermediate snapshots",
	}, s.handleGetTaxonomy)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_documents",
		Description: "Page through the labeled documents of a run, optionally by category",
	}, s.handleGetDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "label_text",
		Description: "Classify a single text against a stored run's taxonomy",
	}, s.handleLabelText)
}

func (s *Server) handleStartRun(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input StartRunInput,
) (*mcp.CallToolResult, JobOutput, error) {
	docs, err := s.loadDocuments(ctx, input)
	if err != nil {
		return nil, JobOutput{}, err
	}

	cfg, err := s.runConfig(input)
	if err != nil {
		return nil, JobOutput{}, err
	}

	job, err := s.ports.Jobs.Submit(ctx, driving.RunRequest{Documents: docs, Config: cfg})
	if err != nil {
		return nil, JobOutput{}, fmt.Errorf("submitting run: %w", err)
	}
	return nil, jobOutput(job), nil
}

func (s *Server) loadDocuments(ctx context.Context, input StartRunInput) ([]domain.Document, error) {
	var raw []domain.RawDocument
	switch {
	case input.SourcePath != "":
		if s.ports.Sources == nil {
			return nil, errors.New("loading from source_path is not available")
		}
		loaded, err := s.ports.Sources.Load(ctx, input.SourcePath, driven.SourceOptions{TextField: input.TextField})
		if err != nil {
			return nil, fmt.Errorf("loading documents: %w", err)
		}
		raw = loaded
	case len(input.Documents) > 0:
		raw = make([]domain.RawDocument, len(input.Documents))
		for i, d := range input.Documents {
			raw[i] = domain.RawDocument{ID: d.ID, Content: d.Text}
		}
	default:
		return nil, errNoDocuments
	}
	return domain.NewDocuments(raw)
}

func (s *Server) runConfig(input StartRunInput) (domain.RunConfig, error) {
	cfg := domain.DefaultRunConfig()
	if s.ports.Settings != nil {
		settings, err := s.ports.Settings.Get()
		if err != nil {
			return cfg, fmt.Errorf("reading settings: %w", err)
		}
		cfg = settings.RunConfig()
	}

	if input.UseCase != "" {
		cfg.UseCase = input.UseCase
	}
	if input.SampleSize != nil {
		cfg.SampleSize = *input.SampleSize
	}
	if input.BatchSize > 0 {
		cfg.BatchSize = input.BatchSize
	}
	if input.MaxClusters > 0 {
		cfg.MaxNumClusters = input.MaxClusters
	}
	if input.Model != "" {
		cfg.Model = input.Model
	}
	if input.FastModel != "" {
		cfg.FastModel = input.FastModel
	}
	if len(input.Categories) > 0 {
		categories := make([]domain.Category, len(input.Categories))
		for i, c := range input.Categories {
			categories[i] = domain.Category{Name: c.Name, Description: c.Description}
		}
		cfg.PredefinedTaxonomy = domain.AssignIDs(categories)
	}
	return cfg, cfg.Validate()
}

func (s *Server) handleJobStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input JobStatusInput,
) (*mcp.CallToolResult, JobOutput, error) {
	job, err := s.ports.Jobs.Get(input.JobID)
	if err != nil {
		return nil, JobOutput{}, fmt.Errorf("getting job %s: %w", input.JobID, err)
	}
	return nil, jobOutput(job), nil
}

func (s *Server) handleListRuns(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListRunsInput,
) (*mcp.CallToolResult, ListRunsOutput, error) {
	runs, err := s.ports.Runs.List(ctx)
	if err != nil {
		return nil, ListRunsOutput{}, fmt.Errorf("listing runs: %w", err)
	}
	if runs == nil {
		runs = []domain.RunSummary{}
	}
	return nil, ListRunsOutput{Runs: runs, Count: len(runs)}, nil
}

func (s *Server) handleGetTaxonomy(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetTaxonomyInput,
) (*mcp.CallToolResult, GetTaxonomyOutput, error) {
	run, err := s.ports.Runs.Get(ctx, input.RunID)
	if err != nil {
		return nil, GetTaxonomyOutput{}, fmt.Errorf("getting run %s: %w", input.RunID, err)
	}

	taxonomy := run.Taxonomy
	counts := run.Metadata.Count
	if input.Batch > 0 {
		snap, ok := findSnapshot(run.Snapshots, input.Batch)
		if !ok {
			return nil, GetTaxonomyOutput{}, fmt.Errorf("%w: run %s has no snapshot for batch %d",
				domain.ErrNotFound, input.RunID, input.Batch)
		}
		taxonomy = snap.Categories
		// Counts only exist for the final taxonomy.
		counts = func(string) int { return 0 }
	}

	out := GetTaxonomyOutput{
		RunID:      run.ID,
		Batch:      input.Batch,
		Categories: make([]CategoryOutput, len(taxonomy)),
		Snapshots:  len(run.Snapshots),
	}
	for i, c := range taxonomy {
		out.Categories[i] = CategoryOutput{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			Documents:   counts(c.Name),
		}
	}
	return nil, out, nil
}

func findSnapshot(snapshots []domain.Snapshot, batch int) (domain.Snapshot, bool) {
	for _, s := range snapshots {
		if s.Batch == batch {
			return s, true
		}
	}
	return domain.Snapshot{}, false
}

func (s *Server) handleGetDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDocumentsInput,
) (*mcp.CallToolResult, GetDocumentsOutput, error) {
	run, err := s.ports.Runs.Get(ctx, input.RunID)
	if err != nil {
		return nil, GetDocumentsOutput{}, fmt.Errorf("getting run %s: %w", input.RunID, err)
	}

	docs := run.Documents
	if input.Category != "" {
		docs = run.DocumentsIn(input.Category)
	}
	total := len(docs)

	limit := input.Limit
	if limit <= 0 {
		limit = defaultDocumentLimit
	}
	offset := min(max(input.Offset, 0), total)
	end := min(offset+limit, total)

	page := make([]domain.Document, end-offset)
	copy(page, docs[offset:end])
	return nil, GetDocumentsOutput{Documents: page, Total: total}, nil
}

func (s *Server) handleLabelText(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input LabelTextInput,
) (*mcp.CallToolResult, LabelTextOutput, error) {
	doc, err := s.ports.Runs.LabelText(ctx, input.RunID, input.Text)
	if err != nil {
		return nil, LabelTextOutput{}, err
	}
	return nil, LabelTextOutput{
		Category:    doc.Category,
		Explanation: doc.Explanation,
		LabeledBy:   string(doc.LabeledBy),
	}, nil
}

func jobOutput(job *domain.Job) JobOutput {
	out := JobOutput{
		JobID:     job.ID,
		Status:    string(job.Status),
		Stage:     string(job.Stage),
		RunID:     job.RunID,
		Error:     job.Error,
		CreatedAt: job.CreatedAt.Format(time.RFC3339),
	}
	if !job.FinishedAt.IsZero() {
		out.FinishedAt = job.FinishedAt.Format(time.RFC3339)
	}
	return out
}
