package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/taxonomist/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/taxonomist/internal/core/domain"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driven"
)

// Store is a SQLite-based storage that provides access to
// the run store interface through a wrapper type.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.taxonomist/data/runs.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".taxonomist", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "runs.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// RunStore returns a RunStore interface backed by this store.
func (s *Store) RunStore() driven.RunStore {
	return &runStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Run Store ====================

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

// Save stores a run, replacing any run with the same ID.
func (s *runStore) Save(ctx context.Context, run *domain.RunResult) error {
	metadataJSON, err := json.Marshal(run.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	// Cascades to categories, snapshots and documents.
	if _, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", run.ID); err != nil {
		return fmt.Errorf("replacing run: %w", err)
	}

	m := run.Metadata
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, path, use_case, model, fast_model, num_documents, num_categories,
			skipped, started_at, duration_ns, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, string(m.Path), m.UseCase, m.Model, m.FastModel, m.NumDocuments, m.NumCategories,
		m.SkippedDocumentCount, m.StartedAt.UnixNano(), int64(m.Duration), string(metadataJSON))
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}

	for i, c := range run.Taxonomy {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO categories (run_id, position, category_id, name, description)
			VALUES (?, ?, ?, ?, ?)
		`, run.ID, i, c.ID, c.Name, c.Description); err != nil {
			return fmt.Errorf("saving category %s: %w", c.ID, err)
		}
	}

	for i, snap := range run.Snapshots {
		categoriesJSON, err := json.Marshal(snap.Categories)
		if err != nil {
			return fmt.Errorf("marshalling snapshot %d: %w", i, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO snapshots (run_id, position, batch, retained, explanation, categories)
			VALUES (?, ?, ?, ?, ?, ?)
		`, run.ID, i, snap.Batch, snap.Retained, snap.Explanation, string(categoriesJSON)); err != nil {
			return fmt.Errorf("saving snapshot %d: %w", i, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (run_id, position, document_id, content, summary, category, explanation, labeled_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing document insert: %w", err)
	}
	defer stmt.Close()

	for i, d := range run.Documents {
		if _, err := stmt.ExecContext(ctx, run.ID, i, d.ID, d.Content, d.Summary,
			d.Category, d.Explanation, string(d.LabeledBy)); err != nil {
			return fmt.Errorf("saving document %s: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// Get retrieves a run with its taxonomy, snapshots and documents.
func (s *runStore) Get(ctx context.Context, id string) (*domain.RunResult, error) {
	row := s.store.db.QueryRowContext(ctx, "SELECT metadata FROM runs WHERE id = ?", id)

	var metadataJSON string
	if err := row.Scan(&metadataJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	run := &domain.RunResult{ID: id}
	if err := json.Unmarshal([]byte(metadataJSON), &run.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshalling metadata: %w", err)
	}

	var err error
	if run.Taxonomy, err = s.categories(ctx, id); err != nil {
		return nil, err
	}
	if run.Snapshots, err = s.snapshots(ctx, id); err != nil {
		return nil, err
	}
	if run.Documents, err = s.documents(ctx, id); err != nil {
		return nil, err
	}
	return run, nil
}

// List returns summaries of all runs, newest first.
func (s *runStore) List(ctx context.Context) ([]domain.RunSummary, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, path, use_case, model, num_documents, num_categories, skipped, started_at, duration_ns
		FROM runs ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunSummary //nolint:prealloc // size unknown from query
	for rows.Next() {
		var r domain.RunSummary
		var path string
		var startedAt, duration int64
		if err := rows.Scan(&r.ID, &path, &r.UseCase, &r.Model, &r.NumDocuments,
			&r.NumCategories, &r.Skipped, &startedAt, &duration); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Path = domain.Path(path)
		r.StartedAt = time.Unix(0, startedAt)
		r.Duration = time.Duration(duration)
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// Delete removes a run and its children.
func (s *runStore) Delete(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *runStore) categories(ctx context.Context, runID string) (domain.Taxonomy, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT category_id, name, description FROM categories
		WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var taxonomy domain.Taxonomy
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		taxonomy = append(taxonomy, c)
	}
	return taxonomy, rows.Err()
}

func (s *runStore) snapshots(ctx context.Context, runID string) ([]domain.Snapshot, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT batch, retained, explanation, categories FROM snapshots
		WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []domain.Snapshot
	for rows.Next() {
		var snap domain.Snapshot
		var categoriesJSON string
		if err := rows.Scan(&snap.Batch, &snap.Retained, &snap.Explanation, &categoriesJSON); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		if err := json.Unmarshal([]byte(categoriesJSON), &snap.Categories); err != nil {
			return nil, fmt.Errorf("unmarshalling snapshot categories: %w", err)
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

func (s *runStore) documents(ctx context.Context, runID string) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT document_id, content, summary, category, explanation, labeled_by FROM documents
		WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var d domain.Document
		var labeledBy string
		if err := rows.Scan(&d.ID, &d.Content, &d.Summary, &d.Category, &d.Explanation, &labeledBy); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		d.LabeledBy = domain.LabelSource(labeledBy)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
