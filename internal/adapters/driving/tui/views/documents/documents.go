// Package documents provides the list of documents labeled with one category.
package documents

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/taxonomist/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/taxonomist/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/taxonomist/internal/core/domain"
)

// View lists the documents of a category.
type View struct {
	styles *styles.Styles

	category     string
	documents    []domain.Document
	selected     int
	scrollOffset int
	width        int
	height       int
}

// NewView creates a new documents view.
func NewView(s *styles.Styles) *View {
	return &View{styles: s}
}

// SetDocuments replaces the listed documents.
func (v *View) SetDocuments(category string, docs []domain.Document) {
	v.category = category
	v.documents = docs
	v.selected = 0
	v.scrollOffset = 0
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		return v.handleKeyMsg(msg)
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
		if v.selected < len(v.documents)-1 {
			v.selected++
		}
	case "home", "g":
		v.selected = 0
	case "end", "G":
		v.selected = max(len(v.documents)-1, 0)
	case "enter":
		if v.selected < len(v.documents) {
			doc := v.documents[v.selected]
			return v, func() tea.Msg {
				return messages.DocumentSelected{Document: doc}
			}
		}
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewTaxonomy}
		}
	}

	v.adjustScroll()
	return v, nil
}

// adjustScroll keeps the selection inside the visible window.
func (v *View) adjustScroll() {
	visible := v.visibleRows()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	}
	if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

func (v *View) visibleRows() int {
	return max(v.height-7, 1)
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(v.category))
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  %d documents", len(v.documents))))
	b.WriteString("\n\n")

	if len(v.documents) == 0 {
		b.WriteString(v.styles.Muted.Render("No documents in this category."))
	}

	end := min(v.scrollOffset+v.visibleRows(), len(v.documents))
	for i := v.scrollOffset; i < end; i++ {
		b.WriteString(v.renderDocument(i, &v.documents[i]))
		b.WriteString("\n")
	}
	if len(v.documents) > v.visibleRows() {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  %d-%d of %d", v.scrollOffset+1, end, len(v.documents))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[enter] view  [g/G] top/bottom  [esc] back  [?] help"))
	return b.String()
}

func (v *View) renderDocument(index int, doc *domain.Document) string {
	label := fmt.Sprintf("[%s]", doc.LabeledBy)
	preview := strings.Join(strings.Fields(doc.Content), " ")
	maxLen := max(v.width-len(doc.ID)-len(label)-8, 10)
	if r := []rune(preview); len(r) > maxLen {
		preview = string(r[:maxLen-3]) + "..."
	}

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("> %s %s %s", doc.ID, label, preview))
	}
	return "  " + v.styles.Subtitle.Render(doc.ID) + " " +
		v.styles.Source(doc.LabeledBy).Render(label) + " " +
		v.styles.Normal.Render(preview)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.adjustScroll()
}

// Category returns the listed category.
func (v *View) Category() string {
	return v.category
}

// Documents returns the listed documents.
func (v *View) Documents() []domain.Document {
	return v.documents
}

// SelectedIndex returns the selected document index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// ScrollOffset returns the first visible row.
func (v *View) ScrollOffset() int {
	return v.scrollOffset
}
