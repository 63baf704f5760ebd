package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
)

func TestDefaultTheme_ColoursAreDistinct(t *testing.T) {
	theme := DefaultTheme()
	require.NotNil(t, theme)

	seen := make(map[lipgloss.Color]bool)
	for _, c := range []lipgloss.Color{theme.Primary, theme.Secondary, theme.Success, theme.Warning, theme.Error} {
		assert.NotEmpty(t, string(c))
		assert.False(t, seen[c], "duplicate colour: %s", c)
		seen[c] = true
	}
}

func TestNewStyles(t *testing.T) {
	t.Run("with theme", func(t *testing.T) {
		theme := DefaultTheme()
		styles := NewStyles(theme)
		assert.Same(t, theme, styles.Theme())
	})

	t.Run("nil theme falls back to default", func(t *testing.T) {
		styles := NewStyles(nil)
		require.NotNil(t, styles.Theme())
		assert.Equal(t, DefaultTheme().Primary, styles.Theme().Primary)
	})
}

func TestStyles_AllStylesInitialised(t *testing.T) {
	styles := DefaultStyles()

	for name, style := range map[string]lipgloss.Style{
		"Title":     styles.Title,
		"Subtitle":  styles.Subtitle,
		"Normal":    styles.Normal,
		"Muted":     styles.Muted,
		"Selected":  styles.Selected,
		"Error":     styles.Error,
		"Success":   styles.Success,
		"Warning":   styles.Warning,
		"StatusBar": styles.StatusBar,
		"Help":      styles.Help,
		"Border":    styles.Border,
		"Bar":       styles.Bar,
		"Label":     styles.Label,
	} {
		assert.NotEqual(t, lipgloss.Style{}, style, name)
		assert.Contains(t, style.Render("text"), "text", name)
	}
}

func TestStyles_Source(t *testing.T) {
	styles := DefaultStyles()
	theme := styles.Theme()

	assert.Equal(t, lipgloss.TerminalColor(theme.Secondary), styles.Source(domain.LabelSourceLLM).GetForeground())
	assert.Equal(t, lipgloss.TerminalColor(theme.Success), styles.Source(domain.LabelSourceClassifier).GetForeground())
	assert.Equal(t, lipgloss.TerminalColor(theme.Error), styles.Source(domain.LabelSourceFallback).GetForeground())
	assert.Equal(t, styles.Muted, styles.Source(domain.LabelSourceNone))
}
