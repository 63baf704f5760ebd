// Package document shows one labeled document in a scrollable pane.
package document

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/taxonomist/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/taxonomist/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/taxonomist/internal/core/domain"
)

// chrome is the number of rows around the pane: id, category, rule,
// position, blank and help.
const chrome = 6

type View struct {
	styles *styles.Styles
	doc    *domain.Document
	pane   viewport.Model
	width  int
}

func NewView(s *styles.Styles) *View {
	return &View{styles: s, pane: viewport.New(80, 1)}
}

// SetDocument shows doc from the top.
func (v *View) SetDocument(doc domain.Document) {
	v.doc = &doc
	v.layout()
	v.pane.GotoTop()
}

func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}
	switch km.String() {
	case "esc":
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewDocuments} }
	case "home", "g":
		v.pane.GotoTop()
		return v, nil
	case "end", "G":
		v.pane.GotoBottom()
		return v, nil
	}
	var cmd tea.Cmd
	v.pane, cmd = v.pane.Update(msg)
	return v, cmd
}

// layout wraps the document for the current width and refills the pane.
func (v *View) layout() {
	if v.doc == nil {
		v.pane.SetContent("")
		return
	}
	wrap := lipgloss.NewStyle().Width(max(v.width-4, 20))
	heading := v.styles.Subtitle

	var body []string
	add := func(title, text string) {
		if text == "" {
			return
		}
		if len(body) > 0 {
			body = append(body, "")
		}
		body = append(body, heading.Render(title), wrap.Render(text))
	}
	add("Explanation", v.doc.Explanation)
	add("Summary", v.doc.Summary)
	add("Content", v.doc.Content)
	v.pane.SetContent(strings.Join(body, "\n"))
}

func (v *View) View() string {
	if v.doc == nil {
		return v.styles.Muted.Render("(No document)")
	}

	header := v.styles.Title.Render(v.doc.ID) + "\n" + v.styles.Subtitle.Render(v.doc.Category)
	if v.doc.LabeledBy != domain.LabelSourceNone {
		header += v.styles.Source(v.doc.LabeledBy).Render("  labeled by " + string(v.doc.LabeledBy))
	}
	rule := strings.Repeat("─", min(max(v.width-4, 20), 60))

	position := ""
	if total := v.pane.TotalLineCount(); total > v.pane.Height {
		first := v.pane.YOffset + 1
		last := min(v.pane.YOffset+v.pane.Height, total)
		position = v.styles.Muted.Render(fmt.Sprintf("  Line %d-%d of %d", first, last, total))
	}

	return strings.Join([]string{
		header,
		rule,
		v.pane.View(),
		position,
		"",
		v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [esc] back"),
	}, "\n")
}

func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.pane.Width = width
	v.pane.Height = max(height-chrome, 1)
	v.layout()
}

func (v *View) Document() *domain.Document { return v.doc }

// ScrollOffset returns the first visible line of the pane.
func (v *View) ScrollOffset() int { return v.pane.YOffset }
