package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/taxonomist/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/taxonomist/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/taxonomist/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/taxonomist/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/taxonomist/internal/adapters/driving/tui/views/document"
	"github.com/custodia-labs/taxonomist/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/taxonomist/internal/adapters/driving/tui/views/runs"
	"github.com/custodia-labs/taxonomist/internal/adapters/driving/tui/views/taxonomy"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap
	bar    *status.Bar

	runsView      *runs.View
	taxonomyView  *taxonomy.View
	documentsView *documents.View
	documentView  *document.View

	currentView messages.ViewType
	// helpReturn is the view restored when help closes.
	helpReturn messages.ViewType

	err    error
	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:         ports,
		ctx:           context.Background(),
		styles:        s,
		keymap:        km,
		bar:           status.NewBar(s, km),
		runsView:      runs.NewView(s, ports.Runs),
		taxonomyView:  taxonomy.NewView(s, ports.Runs),
		documentsView: documents.NewView(s),
		documentView:  document.NewView(s),
		currentView:   messages.ViewRuns,
	}, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.runsView.WithContext(ctx)
	a.taxonomyView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	a.bar.SetState(status.Loading, "")
	return tea.Batch(
		tea.SetWindowTitle("taxonomist - Runs"),
		a.runsView.Init(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := a.update(msg)
	a.syncTrail()
	return model, cmd
}

//nolint:gocyclo // central message handler
func (a *App) update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case messages.RunsLoaded:
		a.runsView, cmd = a.runsView.Update(msg)
		if msg.Err != nil {
			a.setError(msg.Err)
		} else {
			a.bar.SetState(status.Ready, countLabel(len(msg.Runs), "run"))
		}
		return a, cmd

	case messages.RunDeleted:
		a.runsView, cmd = a.runsView.Update(msg)
		if msg.Err != nil {
			a.setError(msg.Err)
		} else {
			a.bar.SetState(status.Loading, "")
		}
		return a, cmd

	case messages.RunSelected:
		a.currentView = messages.ViewTaxonomy
		a.bar.SetState(status.Loading, "")
		return a, a.taxonomyView.Load(msg.RunID)

	case messages.RunLoaded:
		a.taxonomyView, cmd = a.taxonomyView.Update(msg)
		if msg.Err != nil {
			a.setError(msg.Err)
		} else {
			a.bar.SetState(status.Ready, countLabel(len(msg.Run.Taxonomy), "category"))
		}
		return a, cmd

	case messages.CategorySelected:
		run := a.taxonomyView.Run()
		if run == nil {
			return a, nil
		}
		docs := run.DocumentsIn(msg.Category)
		a.documentsView.SetDocuments(msg.Category, docs)
		a.bar.SetState(status.Ready, countLabel(len(docs), "document"))
		a.currentView = messages.ViewDocuments
		return a, nil

	case messages.DocumentSelected:
		a.documentView.SetDocument(msg.Document)
		a.currentView = messages.ViewDocument
		return a, nil

	case messages.ViewChanged:
		a.currentView = msg.View
		return a, nil

	case messages.ErrorOccurred:
		a.setError(msg.Err)
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	return a, nil
}

func (a *App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	keyStr := msg.String()

	if keyStr == "ctrl+c" {
		return a, tea.Quit
	}

	if a.currentView == messages.ViewHelp {
		if key.Matches(msg, a.keymap.Back, a.keymap.Help) {
			a.currentView = a.helpReturn
			a.bar.SetState(status.Ready, "")
		}
		return a, nil
	}
	if key.Matches(msg, a.keymap.Help) {
		a.helpReturn = a.currentView
		a.currentView = messages.ViewHelp
		a.bar.SetState(status.Help, "")
		return a, nil
	}

	switch a.currentView {
	case messages.ViewRuns:
		a.runsView, cmd = a.runsView.Update(msg)
	case messages.ViewTaxonomy:
		a.taxonomyView, cmd = a.taxonomyView.Update(msg)
	case messages.ViewDocuments:
		a.documentsView, cmd = a.documentsView.Update(msg)
	case messages.ViewDocument:
		a.documentView, cmd = a.documentView.Update(msg)
	case messages.ViewHelp:
		// Handled above.
	}
	return a, cmd
}

// syncTrail shows the path to the current view in the status bar.
func (a *App) syncTrail() {
	trail := []string{"runs"}
	view := a.currentView
	if view == messages.ViewHelp {
		view = a.helpReturn
	}
	if view != messages.ViewRuns {
		if run := a.taxonomyView.Run(); run != nil {
			trail = append(trail, run.ID)
		}
	}
	if view == messages.ViewDocuments || view == messages.ViewDocument {
		trail = append(trail, a.documentsView.Category())
	}
	if view == messages.ViewDocument {
		if doc := a.documentView.Document(); doc != nil {
			trail = append(trail, doc.ID)
		}
	}
	a.bar.SetTrail(trail...)
}

func (a *App) setError(err error) {
	a.err = err
	a.bar.SetState(status.Failed, err.Error())
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.currentView {
	case messages.ViewRuns:
		body = a.runsView.View()
	case messages.ViewTaxonomy:
		body = a.taxonomyView.View()
	case messages.ViewDocuments:
		body = a.documentsView.View()
	case messages.ViewDocument:
		body = a.documentView.View()
	case messages.ViewHelp:
		body = a.viewHelp()
	}

	return body + "\n\n" + a.bar.View()
}

func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-10s %s\n", h.Key, h.Desc))
		}
		b.WriteString("\n")
	}
	b.WriteString(a.styles.Help.Render("[esc] back"))
	return b.String()
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and its views.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	// Leave room for the status bar.
	viewHeight := max(height-2, 1)
	a.runsView.SetDimensions(width, viewHeight)
	a.taxonomyView.SetDimensions(width, viewHeight)
	a.documentsView.SetDimensions(width, viewHeight)
	a.documentView.SetDimensions(width, viewHeight)
	a.bar.SetWidth(width)
}

func countLabel(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	if strings.HasSuffix(noun, "y") {
		return fmt.Sprintf("%d %sies", n, strings.TrimSuffix(noun, "y"))
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
