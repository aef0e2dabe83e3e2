// Package sqlite provides a local SQLite mirror of the tabular record
// register, for offline use and tests.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/askpolicy-cli/internal/adapters/driven/tabular/sqlite/migrations"
	"github.com/custodia-labs/askpolicy-cli/internal/core/domain"
	"github.com/custodia-labs/askpolicy-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.TabularStore = (*Store)(nil)

// Store is a SQLite-backed implementation of driven.TabularStore.
// Records are stored as JSON objects so the mirror can hold whatever
// columns the upstream register uses.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.askpolicy/data/records.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".askpolicy", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "records.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
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

// Search returns records where any cell matches any of the terms,
// case-insensitively. The register is small, so matching runs in Go
// over the decoded rows rather than in SQL over the JSON blobs.
func (s *Store) Search(ctx context.Context, terms []string) ([]domain.TabularRow, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	lowered := make([]string, len(terms))
	for i, t := range terms {
		lowered[i] = strings.ToLower(t)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT data FROM records ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var matched []domain.TabularRow
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}

		var record domain.TabularRow
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			return nil, fmt.Errorf("decoding record: %w", err)
		}

		if rowMatches(record, lowered) {
			matched = append(matched, record)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	return matched, nil
}

// AppendFeedback records a user's rating of an answer.
func (s *Store) AppendFeedback(ctx context.Context, fb domain.Feedback) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (id, thread_id, user, rating, question, answer, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		fb.ID, fb.ThreadID, fb.User, fb.Rating, fb.Question, fb.Answer, fb.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting feedback: %w", err)
	}
	return nil
}

// Import replaces the mirror's records with the given rows. Used to
// seed the mirror from an export of the upstream register.
func (s *Store) Import(ctx context.Context, records []domain.TabularRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM records"); err != nil {
		return fmt.Errorf("clearing records: %w", err)
	}

	for _, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encoding record: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO records (data) VALUES (?)", string(data)); err != nil {
			return fmt.Errorf("inserting record: %w", err)
		}
	}

	return tx.Commit()
}

// FeedbackCount reports how many feedback entries are stored.
func (s *Store) FeedbackCount(ctx context.Context) (int, error) {
	var n int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM feedback")
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("counting feedback: %w", err)
	}
	return n, nil
}

// rowMatches reports whether any cell contains any of the lowered terms.
func rowMatches(record domain.TabularRow, lowered []string) bool {
	for _, value := range record {
		cell := strings.ToLower(value)
		for _, term := range lowered {
			if strings.Contains(cell, term) {
				return true
			}
		}
	}
	return false
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
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
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

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}
