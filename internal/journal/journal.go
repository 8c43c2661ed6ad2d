// Package journal records batch processing outcomes in a SQLite ledger so
// interrupted runs can be resumed without reprocessing files.
package journal

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Entry is one processed file.
type Entry struct {
	Path        string
	Mode        string // "remove" or "add"
	Status      string // "processed", "skipped" or "failed"
	Confidence  float64
	ProcessedAt time.Time
}

// Store is a SQLite-backed processing ledger. Safe for concurrent use by
// the worker pool.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates or opens a journal database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS results (
			path TEXT NOT NULL,
			mode TEXT NOT NULL,
			status TEXT NOT NULL,
			confidence REAL NOT NULL,
			processed_at TEXT NOT NULL,
			PRIMARY KEY (path, mode)
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create journal schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Record upserts the outcome for a file. Reprocessing a file overwrites its
// previous entry.
func (s *Store) Record(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ProcessedAt.IsZero() {
		e.ProcessedAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO results (path, mode, status, confidence, processed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (path, mode) DO UPDATE SET
			status = excluded.status,
			confidence = excluded.confidence,
			processed_at = excluded.processed_at`,
		e.Path, e.Mode, e.Status, e.Confidence, e.ProcessedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record journal entry for %s: %w", e.Path, err)
	}
	return nil
}

// Lookup returns the recorded entry for a path and mode, if any.
func (s *Store) Lookup(path, mode string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var e Entry
	var ts string
	err := s.db.QueryRow(
		"SELECT path, mode, status, confidence, processed_at FROM results WHERE path = ? AND mode = ?",
		path, mode,
	).Scan(&e.Path, &e.Mode, &e.Status, &e.Confidence, &ts)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to query journal: %w", err)
	}

	if t, perr := time.Parse(time.RFC3339, ts); perr == nil {
		e.ProcessedAt = t
	}
	return e, true, nil
}

// Done reports whether a path was already processed (or deliberately
// skipped) in the given mode. Failed attempts do not count.
func (s *Store) Done(path, mode string) (bool, error) {
	e, ok, err := s.Lookup(path, mode)
	if err != nil || !ok {
		return false, err
	}
	return e.Status == "processed" || e.Status == "skipped", nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
