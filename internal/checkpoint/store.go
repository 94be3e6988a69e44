// Package checkpoint persists run progress in a local SQLite database so an
// interrupted batch can resume where it stopped instead of re-driving the
// portal for students that already reached a terminal state.
package checkpoint

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS annotations (
	pen        TEXT PRIMARY KEY,
	remark     TEXT NOT NULL,
	status     TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS shifted (
	pen        TEXT PRIMARY KEY,
	updated_at TEXT NOT NULL
);
`

// Store is a file-backed checkpoint. It satisfies the reconcile package's
// Checkpoint and ShiftLog contracts.
type Store struct {
	db *sql.DB
}

// Open creates the database file and schema if needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create checkpoint dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint db: %w", err)
	}
	// One writer, one connection. Avoids SQLITE_BUSY on the single-threaded
	// run while keeping the file safe to inspect mid-run.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply checkpoint schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Done returns the terminal annotation recorded for a student, if any.
func (s *Store) Done(pen string) (remark, status string, ok bool, err error) {
	row := s.db.QueryRow(`SELECT remark, status FROM annotations WHERE pen = ?`, pen)
	switch err := row.Scan(&remark, &status); {
	case err == nil:
		return remark, status, true, nil
	case errors.Is(err, sql.ErrNoRows):
		return "", "", false, nil
	default:
		return "", "", false, fmt.Errorf("read annotation for %s: %w", pen, err)
	}
}

// MarkDone records a student's terminal annotation, replacing any prior
// one.
func (s *Store) MarkDone(pen, remark, status string) error {
	_, err := s.db.Exec(
		`INSERT INTO annotations (pen, remark, status, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(pen) DO UPDATE SET remark = excluded.remark,
		 status = excluded.status, updated_at = excluded.updated_at`,
		pen, remark, status, time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("write annotation for %s: %w", pen, err)
	}
	return nil
}

// Shifted reports whether a student's section was already corrected in this
// run or any earlier one.
func (s *Store) Shifted(pen string) (bool, error) {
	var one int
	row := s.db.QueryRow(`SELECT 1 FROM shifted WHERE pen = ?`, pen)
	switch err := row.Scan(&one); {
	case err == nil:
		return true, nil
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	default:
		return false, fmt.Errorf("read shift for %s: %w", pen, err)
	}
}

// MarkShifted records a completed section shift.
func (s *Store) MarkShifted(pen string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO shifted (pen, updated_at) VALUES (?, ?)`,
		pen, time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("write shift for %s: %w", pen, err)
	}
	return nil
}

// Reset clears all recorded progress. Used when a fresh run is requested
// over a database left by an earlier one.
func (s *Store) Reset() error {
	if _, err := s.db.Exec(`DELETE FROM annotations`); err != nil {
		return fmt.Errorf("clear annotations: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM shifted`); err != nil {
		return fmt.Errorf("clear shifted: %w", err)
	}
	return nil
}
