package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
)

const (
	// URIScheme is the custom URI scheme for Taxonomist resources.
	uriScheme = "taxonomist://"

	jsonMIMEType = "application/json"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "runs",
		Name:        "runs",
		Description: "Summaries of all stored runs",
		MIMEType:    jsonMIMEType,
	}, s.handleRunsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "runs/{runId}",
		Name:        "run-taxonomy",
		Description: "Taxonomy, snapshots and statistics of a run",
		MIMEType:    jsonMIMEType,
	}, s.handleRunResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "runs/{runId}/documents",
		Name:        "run-documents",
		Description: "Labeled documents of a run",
		MIMEType:    jsonMIMEType,
	}, s.handleRunDocumentsResource)
}

// handleRunsResource returns the summaries of all stored runs.
func (s *Server) handleRunsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	runs, err := s.ports.Runs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	if runs == nil {
		runs = []domain.RunSummary{}
	}
	return jsonResource(req.Params.URI, runs)
}

// handleRunResource returns a run without its documents.
func (s *Server) handleRunResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	runID, rest := splitRunURI(req.Params.URI)
	if runID == "" || rest != "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	run, err := s.getRun(ctx, req.Params.URI, runID)
	if err != nil {
		return nil, err
	}

	view := struct {
		ID        string             `json:"id"`
		Taxonomy  domain.Taxonomy    `json:"taxonomy"`
		Snapshots []domain.Snapshot  `json:"snapshots"`
		Metadata  domain.RunMetadata `json:"metadata"`
	}{run.ID, run.Taxonomy, run.Snapshots, run.Metadata}
	return jsonResource(req.Params.URI, view)
}

// handleRunDocumentsResource returns the labeled documents of a run.
func (s *Server) handleRunDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	runID, rest := splitRunURI(req.Params.URI)
	if runID == "" || rest != "documents" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	run, err := s.getRun(ctx, req.Params.URI, runID)
	if err != nil {
		return nil, err
	}
	docs := run.Documents
	if docs == nil {
		docs = []domain.Document{}
	}
	return jsonResource(req.Params.URI, docs)
}

func (s *Server) getRun(ctx context.Context, uri, runID string) (*domain.RunResult, error) {
	run, err := s.ports.Runs.Get(ctx, runID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	if err != nil {
		return nil, fmt.Errorf("getting run: %w", err)
	}
	return run, nil
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: jsonMIMEType,
			Text:     string(data),
		}},
	}, nil
}

// splitRunURI splits taxonomist://runs/{runId}[/rest] into the run ID and
// the remaining path.
func splitRunURI(uri string) (runID, rest string) {
	const prefix = uriScheme + "runs/"

	if !strings.HasPrefix(uri, prefix) {
		return "", ""
	}

	runID, rest, _ = strings.Cut(strings.TrimPrefix(uri, prefix), "/")
	return runID, rest
}
