// Package status renders the one-line bar under every view.
package status

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/taxonomist/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/taxonomist/internal/adapters/driving/tui/styles"
)

// State selects what the bar reports next to the trail.
type State int

const (
	Ready State = iota
	Loading
	Failed
	Help
)

const trailSep = " › "

// Bar shows where the user is (run, category), what the app is doing and
// the global key hints.
type Bar struct {
	styles *styles.Styles
	hints  []key.Binding
	trail  []string
	state  State
	note   string
	width  int
}

// NewBar returns a Ready bar 80 cells wide. Nil arguments use the defaults.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, hints: km.ShortHelp(), width: 80}
}

// SetState replaces the state and its note. The note is the error text for
// Failed and a summary such as "12 documents" for Ready.
func (b *Bar) SetState(state State, note string) {
	b.state, b.note = state, note
}

// SetTrail sets the navigation path, outermost first. Empty parts are skipped.
func (b *Bar) SetTrail(parts ...string) {
	b.trail = b.trail[:0]
	for _, p := range parts {
		if p != "" {
			b.trail = append(b.trail, p)
		}
	}
}

func (b *Bar) SetWidth(width int) { b.width = width }

func (b *Bar) State() State    { return b.state }
func (b *Bar) Note() string    { return b.note }
func (b *Bar) Trail() []string { return b.trail }

func (b *Bar) View() string {
	left := b.status()
	if len(b.trail) > 0 {
		left = b.styles.Subtitle.Render(strings.Join(b.trail, trailSep)) + "  " + left
	}
	right := b.keyHints()

	// StatusBar pads one cell each side.
	gap := max(b.width-2-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (b *Bar) status() string {
	switch b.state {
	case Loading:
		return b.styles.Muted.Render("Loading...")
	case Failed:
		if b.note == "" {
			return b.styles.Error.Render("Error")
		}
		return b.styles.Error.Render("Error: " + b.note)
	case Help:
		return b.styles.Normal.Render("Help")
	}
	if b.note == "" {
		return b.styles.Muted.Render("Ready")
	}
	return b.styles.Normal.Render(b.note)
}

func (b *Bar) keyHints() string {
	parts := make([]string, len(b.hints))
	for i, h := range b.hints {
		parts[i] = h.Help().Key + ": " + h.Help().Desc
	}
	return b.styles.Muted.Render(strings.Join(parts, " | "))
}
