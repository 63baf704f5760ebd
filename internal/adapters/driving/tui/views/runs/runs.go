// Package runs provides the stored runs list view for the TUI.
package runs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/taxonomist/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/taxonomist/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/taxonomist/internal/core/domain"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driving"
)

var errNoRunService = errors.New("run service not available")

// View lists stored runs, newest first.
type View struct {
	styles     *styles.Styles
	runService driving.RunService
	ctx        context.Context

	runs     []domain.RunSummary
	selected int
	width    int
	height   int
	err      error
	loading  bool
}

// NewView creates a new runs view.
func NewView(s *styles.Styles, runService driving.RunService) *View {
	return &View{
		styles:     s,
		runService: runService,
		ctx:        context.Background(),
	}
}

// WithContext sets the context used by service calls.
func (v *View) WithContext(ctx context.Context) {
	v.ctx = ctx
}

// Init loads the run list.
func (v *View) Init() tea.Cmd {
	return v.loadRuns()
}

func (v *View) loadRuns() tea.Cmd {
	v.loading = true
	svc, ctx := v.runService, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.RunsLoaded{Err: errNoRunService}
		}
		runs, err := svc.List(ctx)
		return messages.RunsLoaded{Runs: runs, Err: err}
	}
}

func (v *View) deleteRun(id string) tea.Cmd {
	svc, ctx := v.runService, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.RunDeleted{ID: id, Err: errNoRunService}
		}
		return messages.RunDeleted{ID: id, Err: svc.Delete(ctx, id)}
	}
}

// Update handles messages for the runs view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.RunsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.runs = msg.Runs
		v.err = nil
		if v.selected >= len(v.runs) {
			v.selected = max(len(v.runs)-1, 0)
		}
		return v, nil

	case messages.RunDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		return v, v.loadRuns()
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < len(v.runs)-1 {
			v.selected++
		}
	case "enter":
		if run, ok := v.current(); ok {
			return v, func() tea.Msg {
				return messages.RunSelected{RunID: run.ID}
			}
		}
	case "d", "delete":
		if run, ok := v.current(); ok {
			return v, v.deleteRun(run.ID)
		}
	case "r":
		return v, v.loadRuns()
	case "q":
		return v, func() tea.Msg { return messages.Quit{} }
	}

	return v, nil
}

func (v *View) current() (domain.RunSummary, bool) {
	if v.selected < 0 || v.selected >= len(v.runs) {
		return domain.RunSummary{}, false
	}
	return v.runs[v.selected], true
}

// View renders the runs view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Runs"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading runs..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case len(v.runs) == 0:
		b.WriteString(v.styles.Muted.Render("No runs yet. Start one with 'taxonomist run <file>'."))
	default:
		for i := range v.runs {
			b.WriteString(v.renderRun(i, &v.runs[i]))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[enter] open  [d] delete  [r] reload  [?] help  [q] quit"))
	return b.String()
}

func (v *View) renderRun(index int, run *domain.RunSummary) string {
	started := "-"
	if !run.StartedAt.IsZero() {
		started = run.StartedAt.Local().Format("2006-01-02 15:04")
	}
	stats := fmt.Sprintf("%5d docs %3d categories", run.NumDocuments, run.NumCategories)

	useCase := run.UseCase
	maxLen := max(v.width-len(run.ID)-len(stats)-len(started)-12, 10)
	if len([]rune(useCase)) > maxLen {
		useCase = string([]rune(useCase)[:maxLen-3]) + "..."
	}

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("> %s  %s  %s  %s", run.ID, started, stats, useCase))
	}
	return "  " + v.styles.Subtitle.Render(run.ID) + "  " +
		v.styles.Muted.Render(started) + "  " +
		v.styles.Normal.Render(stats) + "  " +
		v.styles.Muted.Render(useCase)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Runs returns the loaded runs.
func (v *View) Runs() []domain.RunSummary {
	return v.runs
}

// SelectedIndex returns the selected run index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
