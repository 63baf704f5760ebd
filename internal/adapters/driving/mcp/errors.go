// Package mcp provides an MCP (Model Context Protocol) server adapter for
// Taxonomist. It lets AI assistants start pipeline runs, poll their jobs and
// browse stored taxonomies and labeled documents.
package mcp

import "errors"

var (
	// ErrMissingRunService is returned when the run service is not provided.
	ErrMissingRunService = errors.New("mcp: run service is required")

	// ErrMissingJobService is returned when the job service is not provided.
	ErrMissingJobService = errors.New("mcp: job service is required")

	// errNoDocuments is returned by start_run without a source or documents.
	errNoDocuments = errors.New("either source_path or documents is required")
)
