// Package styles provides colour themes and styling for the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
)

// Theme is the colour palette of the TUI.
type Theme struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
	Border     lipgloss.Color
	StatusBar  lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#2E7D6B"),
		Secondary:  lipgloss.Color("#89B4FA"),
		Foreground: lipgloss.Color("#CDD6F4"),
		Muted:      lipgloss.Color("#6C7086"),
		Success:    lipgloss.Color("#A6E3A1"),
		Warning:    lipgloss.Color("#F9E2AF"),
		Error:      lipgloss.Color("#F38BA8"),
		Border:     lipgloss.Color("#45475A"),
		StatusBar:  lipgloss.Color("#181825"),
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Normal    lipgloss.Style
	Muted     lipgloss.Style
	Selected  lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	StatusBar lipgloss.Style
	Help      lipgloss.Style
	Border    lipgloss.Style

	// Bar draws category distribution bars.
	Bar lipgloss.Style

	// Label is used for snapshot explanations and label provenance.
	Label lipgloss.Style

	sources map[domain.LabelSource]lipgloss.Style
}

// NewStyles creates styles from a theme. A nil theme uses DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

	label := fg(theme.Warning).Italic(true)
	return &Styles{
		theme:     theme,
		Title:     fg(theme.Primary).Bold(true),
		Subtitle:  fg(theme.Secondary).Bold(true),
		Normal:    fg(theme.Foreground),
		Muted:     fg(theme.Muted),
		Selected:  fg(theme.Foreground).Background(theme.Primary).Bold(true),
		Error:     fg(theme.Error),
		Success:   fg(theme.Success),
		Warning:   fg(theme.Warning),
		StatusBar: fg(theme.Muted).Background(theme.StatusBar).Padding(0, 1),
		Help:      fg(theme.Muted),
		Border:    lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(theme.Border),
		Bar:       fg(theme.Secondary),
		Label:     label,
		sources: map[domain.LabelSource]lipgloss.Style{
			domain.LabelSourceLLM:        fg(theme.Secondary).Italic(true),
			domain.LabelSourceClassifier: fg(theme.Success).Italic(true),
			domain.LabelSourceFallback:   fg(theme.Error).Italic(true),
		},
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// Source returns the style for a label's provenance. Unknown sources are muted.
func (s *Styles) Source(src domain.LabelSource) lipgloss.Style {
	if st, ok := s.sources[src]; ok {
		return st
	}
	return s.Muted
}
