// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/taxonomist/internal/core/domain"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewRuns lists stored runs.
	ViewRuns ViewType = iota
	// ViewTaxonomy shows the categories of one run.
	ViewTaxonomy
	// ViewDocuments lists the documents of one category.
	ViewDocuments
	// ViewDocument shows a single labeled document.
	ViewDocument
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewRuns:
		return "runs"
	case ViewTaxonomy:
		return "taxonomy"
	case ViewDocuments:
		return "documents"
	case ViewDocument:
		return "document"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// RunsLoaded carries the stored run summaries.
type RunsLoaded struct {
	Runs []domain.RunSummary
	Err  error
}

// RunSelected signals a run was chosen from the list.
type RunSelected struct {
	RunID string
}

// RunLoaded carries a full stored run.
type RunLoaded struct {
	Run *domain.RunResult
	Err error
}

// RunDeleted signals a run was removed.
type RunDeleted struct {
	ID  string
	Err error
}

// CategorySelected signals a category was chosen in the taxonomy view.
type CategorySelected struct {
	Category string
}

// DocumentSelected signals a document was chosen.
type DocumentSelected struct {
	Document domain.Document
}
