// Package taxonomy provides the view showing one run's categories and their
// document distribution, with access to the intermediate snapshots.
package taxonomy

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

const barWidth = 24

// Row is one line of the category table.
type Row struct {
	Name        string
	Description string
	Count       int
}

// View shows the taxonomy of a single run.
type View struct {
	styles     *styles.Styles
	runService driving.RunService
	ctx        context.Context

	run *domain.RunResult
	// snapshot is 0 for the final taxonomy, otherwise a 1-based index
	// into run.Snapshots.
	snapshot int
	selected int
	width    int
	height   int
	err      error
	loading  bool
}

// NewView creates a new taxonomy view.
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

// Load fetches a run and resets the view.
func (v *View) Load(runID string) tea.Cmd {
	v.run = nil
	v.snapshot = 0
	v.selected = 0
	v.err = nil
	v.loading = true

	svc, ctx := v.runService, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.RunLoaded{Err: errors.New("run service not available")}
		}
		run, err := svc.Get(ctx, runID)
		return messages.RunLoaded{Run: run, Err: err}
	}
}

// Update handles messages for the taxonomy view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.RunLoaded:
		v.loading = false
		v.run = msg.Run
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	rows := v.Rows()

	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < len(rows)-1 {
			v.selected++
		}
	case "[":
		v.stepSnapshot(-1)
	case "]":
		v.stepSnapshot(1)
	case "enter":
		// Documents are labeled against the final taxonomy only.
		if v.snapshot == 0 && v.selected < len(rows) {
			name := rows[v.selected].Name
			return v, func() tea.Msg {
				return messages.CategorySelected{Category: name}
			}
		}
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewRuns}
		}
	}

	return v, nil
}

// stepSnapshot moves through the history. Stepping back from the final
// taxonomy lands on the newest snapshot.
func (v *View) stepSnapshot(delta int) {
	if v.run == nil || len(v.run.Snapshots) == 0 {
		return
	}
	n := len(v.run.Snapshots)
	pos := v.snapshot
	if pos == 0 {
		pos = n + 1
	}
	pos += delta
	switch {
	case pos < 1:
		pos = 1
	case pos > n:
		pos = 0
	}
	v.snapshot = pos
	v.selected = 0
}

// Rows returns the category rows currently displayed. The final taxonomy
// includes the fallback category when documents landed in it.
func (v *View) Rows() []Row {
	if v.run == nil {
		return nil
	}

	if v.snapshot > 0 {
		snap := v.run.Snapshots[v.snapshot-1]
		rows := make([]Row, len(snap.Categories))
		for i, c := range snap.Categories {
			rows[i] = Row{Name: c.Name, Description: c.Description}
		}
		return rows
	}

	rows := make([]Row, 0, len(v.run.Taxonomy)+1)
	for _, c := range v.run.Taxonomy {
		rows = append(rows, Row{Name: c.Name, Description: c.Description, Count: v.run.Metadata.Count(c.Name)})
	}
	if other := v.run.Metadata.Count(domain.OtherCategory); other > 0 {
		rows = append(rows, Row{Name: domain.OtherCategory, Description: "Documents outside the taxonomy", Count: other})
	}
	return rows
}

// View renders the taxonomy view.
func (v *View) View() string {
	var b strings.Builder

	switch {
	case v.loading:
		b.WriteString(v.styles.Title.Render("Taxonomy"))
		b.WriteString("\n\n")
		b.WriteString(v.styles.Muted.Render("Loading run..."))
	case v.err != nil:
		b.WriteString(v.styles.Title.Render("Taxonomy"))
		b.WriteString("\n\n")
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case v.run != nil:
		v.renderRun(&b)
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[enter] documents  [ [ / ] ] snapshots  [esc] back  [?] help"))
	return b.String()
}

func (v *View) renderRun(b *strings.Builder) {
	b.WriteString(v.styles.Title.Render("Run " + v.run.ID))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%s · %d documents · %s",
		v.run.Metadata.Path, v.run.Metadata.NumDocuments, v.run.Metadata.UseCase)))
	b.WriteString("\n")
	b.WriteString(v.styles.Subtitle.Render(v.heading()))
	b.WriteString("\n\n")

	rows := v.Rows()
	if len(rows) == 0 {
		b.WriteString(v.styles.Muted.Render("(No categories)"))
		return
	}

	maxCount := 0
	for _, r := range rows {
		maxCount = max(maxCount, r.Count)
	}

	for i, r := range rows {
		line := fmt.Sprintf("%-28s", truncate(r.Name, 28))
		if v.snapshot == 0 {
			line += fmt.Sprintf(" %5d ", r.Count)
		}
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render("> " + line))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + line))
		}
		if v.snapshot == 0 && maxCount > 0 {
			b.WriteString(v.styles.Bar.Render(strings.Repeat("█", r.Count*barWidth/maxCount)))
		}
		b.WriteString("\n")
	}

	if sel := rows[min(v.selected, len(rows)-1)]; sel.Description != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(truncate(sel.Description, max(v.width-4, 20))))
	}
	if v.snapshot > 0 {
		snap := v.run.Snapshots[v.snapshot-1]
		if snap.Explanation != "" {
			b.WriteString("\n\n")
			b.WriteString(v.styles.Label.Render(truncate(snap.Explanation, max(v.width-4, 20))))
		}
	}
}

func (v *View) heading() string {
	n := len(v.run.Snapshots)
	if v.snapshot == 0 {
		return fmt.Sprintf("Final taxonomy (%d snapshots)", n)
	}
	snap := v.run.Snapshots[v.snapshot-1]
	heading := fmt.Sprintf("Snapshot %d of %d, batch %d", v.snapshot, n, snap.Batch)
	if snap.Retained {
		heading += " (retained)"
	}
	return heading
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Run returns the loaded run.
func (v *View) Run() *domain.RunResult {
	return v.run
}

// Snapshot returns 0 for the final taxonomy or the 1-based snapshot shown.
func (v *View) Snapshot() int {
	return v.snapshot
}

// SelectedIndex returns the selected row index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
