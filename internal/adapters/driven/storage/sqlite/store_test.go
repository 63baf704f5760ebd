package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func testRun(id string, started time.Time) *domain.RunResult {
	taxonomy := domain.Taxonomy{
		{ID: "1", Name: "Billing", Description: "Invoices and refunds"},
		{ID: "2", Name: "Login", Description: "Account access"},
	}
	return &domain.RunResult{
		ID:       id,
		Taxonomy: taxonomy,
		Snapshots: []domain.Snapshot{
			{Batch: 1, Categories: taxonomy[:1], Explanation: "first pass"},
			{Batch: 2, Categories: taxonomy, Retained: true},
		},
		Documents: []domain.Document{
			{ID: "1", Content: "refund please", Summary: "refund", Category: "Billing", LabeledBy: domain.LabelSourceLLM},
			{ID: "2", Content: "cannot log in", Category: "Login", LabeledBy: domain.LabelSourceClassifier},
			{ID: "3", Content: "hello", Category: domain.OtherCategory, LabeledBy: domain.LabelSourceFallback},
		},
		Metadata: domain.RunMetadata{
			Path:                 domain.PathDiscovery,
			NumDocuments:         3,
			NumCategories:        2,
			UseCase:              "support tickets",
			Model:                "anthropic/claude-3-5-sonnet-20241022",
			FastModel:            "anthropic/claude-3-haiku-20240307",
			SkippedDocumentCount: 1,
			Warnings:             []string{"No category ID returned for doc 3, using 'Other'"},
			StartedAt:            started,
			Duration:             2 * time.Second,
		},
	}
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "runs.db"), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_ReopenSkipsAppliedMigrations(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.RunStore().Save(context.Background(), testRun("run-1", time.Now())))
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	_, err = second.RunStore().Get(context.Background(), "run-1")
	assert.NoError(t, err)
}

func TestRunStore_SaveAndGet_RoundTrip(t *testing.T) {
	store := setupTestStore(t).RunStore()
	ctx := context.Background()
	started := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, testRun("run-1", started)))

	got, err := store.Get(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, "run-1", got.ID)
	assert.Equal(t, domain.Taxonomy{
		{ID: "1", Name: "Billing", Description: "Invoices and refunds"},
		{ID: "2", Name: "Login", Description: "Account access"},
	}, got.Taxonomy)

	require.Len(t, got.Snapshots, 2)
	assert.Equal(t, "first pass", got.Snapshots[0].Explanation)
	assert.Len(t, got.Snapshots[0].Categories, 1)
	assert.True(t, got.Snapshots[1].Retained)

	require.Len(t, got.Documents, 3)
	assert.Equal(t, []string{"1", "2", "3"},
		[]string{got.Documents[0].ID, got.Documents[1].ID, got.Documents[2].ID})
	assert.Equal(t, "refund", got.Documents[0].Summary)
	assert.Equal(t, domain.LabelSourceClassifier, got.Documents[1].LabeledBy)
	assert.Equal(t, domain.OtherCategory, got.Documents[2].Category)

	assert.Equal(t, "support tickets", got.Metadata.UseCase)
	assert.Equal(t, 1, got.Metadata.SkippedDocumentCount)
	assert.Len(t, got.Metadata.Warnings, 1)
	assert.True(t, started.Equal(got.Metadata.StartedAt))
}

func TestRunStore_Save_Replaces(t *testing.T) {
	store := setupTestStore(t).RunStore()
	ctx := context.Background()

	run := testRun("run-1", time.Now())
	require.NoError(t, store.Save(ctx, run))

	run.Documents = run.Documents[:1]
	run.Taxonomy = run.Taxonomy[:1]
	require.NoError(t, store.Save(ctx, run))

	got, err := store.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, got.Documents, 1)
	assert.Len(t, got.Taxonomy, 1)
}

func TestRunStore_Get_NotFound(t *testing.T) {
	store := setupTestStore(t).RunStore()

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRunStore_List_NewestFirst(t *testing.T) {
	store := setupTestStore(t).RunStore()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, testRun("old", base)))
	require.NoError(t, store.Save(ctx, testRun("new", base.Add(time.Hour))))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "old", list[1].ID)
	assert.Equal(t, 2, list[0].NumCategories)
	assert.Equal(t, 2*time.Second, list[0].Duration)
	assert.Equal(t, domain.PathDiscovery, list[0].Path)
}

func TestRunStore_Delete(t *testing.T) {
	s := setupTestStore(t)
	store := s.RunStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, testRun("run-1", time.Now())))

	require.NoError(t, store.Delete(ctx, "run-1"))

	_, err := store.Get(ctx, "run-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "run-1"), domain.ErrNotFound)

	var n int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&n))
	assert.Zero(t, n, "documents cascade with the run")
}
