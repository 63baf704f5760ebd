package mcp

import (
	"github.com/custodia-labs/taxonomist/internal/core/ports/driven"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driving"
)

// Ports aggregates the interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Runs reads stored runs and labels single texts.
	Runs driving.RunService

	// Jobs executes runs in the background.
	Jobs driving.JobService

	// Settings supplies run defaults. Optional; built-in defaults otherwise.
	Settings driving.SettingsService

	// Sources loads documents for start_run with a source_path. Optional.
	Sources driven.SourceLoader
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Runs == nil {
		return ErrMissingRunService
	}
	if p.Jobs == nil {
		return ErrMissingJobService
	}
	return nil
}
