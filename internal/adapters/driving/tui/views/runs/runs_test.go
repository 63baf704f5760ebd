package runs

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/taxonomist/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/taxonomist/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/taxonomist/internal/core/domain"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driving"
)

type mockRunService struct {
	summaries []domain.RunSummary
	deleted   string
	err       error
}

func (m *mockRunService) Execute(_ context.Context, _ driving.RunRequest) (*domain.RunResult, error) {
	return nil, m.err
}

func (m *mockRunService) List(_ context.Context) ([]domain.RunSummary, error) {
	return m.summaries, m.err
}

func (m *mockRunService) Get(_ context.Context, _ string) (*domain.RunResult, error) {
	return nil, m.err
}

func (m *mockRunService) Delete(_ context.Context, id string) error {
	m.deleted = id
	return m.err
}

func (m *mockRunService) LabelText(_ context.Context, _, _ string) (*domain.Document, error) {
	return nil, m.err
}

func summaries() []domain.RunSummary {
	return []domain.RunSummary{
		{ID: "run-b", UseCase: "tickets", NumDocuments: 10, NumCategories: 3,
			StartedAt: time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)},
		{ID: "run-a", UseCase: "reviews", NumDocuments: 4, NumCategories: 2},
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestView_InitLoadsRuns(t *testing.T) {
	svc := &mockRunService{summaries: summaries()}
	v := NewView(styles.DefaultStyles(), svc)

	cmd := v.Init()
	require.NotNil(t, cmd)
	assert.Contains(t, v.View(), "Loading runs...")

	v, _ = v.Update(cmd())
	assert.Len(t, v.Runs(), 2)
	assert.NoError(t, v.Err())
	assert.Contains(t, v.View(), "run-b")
	assert.Contains(t, v.View(), "reviews")
}

func TestView_NilService(t *testing.T) {
	v := NewView(styles.DefaultStyles(), nil)

	v, _ = v.Update(v.Init()())
	assert.ErrorIs(t, v.Err(), errNoRunService)
	assert.Contains(t, v.View(), "Error")
}

func TestView_EmptyState(t *testing.T) {
	v := NewView(styles.DefaultStyles(), &mockRunService{})

	v, _ = v.Update(messages.RunsLoaded{})
	assert.Contains(t, v.View(), "No runs yet")
}

func TestView_Navigation(t *testing.T) {
	v := NewView(styles.DefaultStyles(), &mockRunService{})
	v, _ = v.Update(messages.RunsLoaded{Runs: summaries()})

	v, _ = v.Update(keyRunes("k"))
	assert.Equal(t, 0, v.SelectedIndex())

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, v.SelectedIndex())
	v, _ = v.Update(keyRunes("j"))
	assert.Equal(t, 1, v.SelectedIndex())

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.RunSelected{RunID: "run-a"}, cmd())
}

func TestView_SelectionClampedOnReload(t *testing.T) {
	v := NewView(styles.DefaultStyles(), &mockRunService{})
	v, _ = v.Update(messages.RunsLoaded{Runs: summaries()})
	v, _ = v.Update(keyRunes("j"))

	v, _ = v.Update(messages.RunsLoaded{Runs: summaries()[:1]})
	assert.Equal(t, 0, v.SelectedIndex())
}

func TestView_Delete(t *testing.T) {
	svc := &mockRunService{}
	v := NewView(styles.DefaultStyles(), svc)
	v, _ = v.Update(messages.RunsLoaded{Runs: summaries()})

	_, cmd := v.Update(keyRunes("d"))
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, messages.RunDeleted{ID: "run-b"}, msg)
	assert.Equal(t, "run-b", svc.deleted)

	_, cmd = v.Update(msg)
	require.NotNil(t, cmd, "successful delete reloads the list")
	assert.IsType(t, messages.RunsLoaded{}, cmd())

	v, cmd = v.Update(messages.RunDeleted{ID: "run-b", Err: errors.New("locked")})
	assert.Nil(t, cmd)
	assert.EqualError(t, v.Err(), "locked")
}

func TestView_Quit(t *testing.T) {
	v := NewView(styles.DefaultStyles(), &mockRunService{})

	_, cmd := v.Update(keyRunes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, messages.Quit{}, cmd())
}
