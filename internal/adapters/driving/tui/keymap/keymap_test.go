package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()
	require.NotNil(t, km)

	tests := []struct {
		name    string
		keys    []string
		binding []string
	}{
		{"quit", []string{"q", "ctrl+c"}, km.Quit.Keys()},
		{"help", []string{"?"}, km.Help.Keys()},
		{"back", []string{"esc"}, km.Back.Keys()},
		{"up", []string{"up", "k"}, km.Up.Keys()},
		{"down", []string{"down", "j"}, km.Down.Keys()},
		{"select", []string{"enter"}, km.Select.Keys()},
		{"delete", []string{"d", "delete"}, km.Delete.Keys()},
		{"reload", []string{"r"}, km.Reload.Keys()},
		{"prev snapshot", []string{"["}, km.PrevSnapshot.Keys()},
		{"next snapshot", []string{"]"}, km.NextSnapshot.Keys()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.keys, tt.binding)
		})
	}
}

func TestKeyMap_Help(t *testing.T) {
	km := DefaultKeyMap()

	assert.Len(t, km.ShortHelp(), 2)

	total := 0
	for _, group := range km.FullHelp() {
		total += len(group)
	}
	assert.Equal(t, 10, total)
}

func TestBindingsMatchKeyMsgs(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")}, km.Up))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlC}, km.Quit))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyEsc}, km.Back, km.Help))
	assert.False(t, key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")}, km.Quit))
}
