// Package ledger keeps a SQLite history of file runs.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bimmerbailey/credsift/internal/sorter"
	_ "modernc.org/sqlite"
)

// Entry is one recorded file run.
type Entry struct {
	ID        int64          `json:"id"`
	RunID     string         `json:"run_id"`
	Path      string         `json:"path"`
	Lines     int            `json:"lines"`
	Dropped   int            `json:"dropped"`
	Good      int            `json:"good"`
	Buckets   map[string]int `json:"buckets"`
	Error     string         `json:"error,omitempty"`
	StartedAt time.Time      `json:"started_at"`
	Elapsed   time.Duration  `json:"elapsed"`
}

// Ledger records run results. It is safe for concurrent use.
type Ledger struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// Open creates or opens the ledger database at path.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	l := &Ledger{db: db, path: path, now: time.Now}
	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return l, nil
}

// Path returns the database file path.
func (l *Ledger) Path() string {
	return l.path
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		path TEXT NOT NULL,
		lines INTEGER NOT NULL,
		dropped INTEGER NOT NULL,
		good INTEGER NOT NULL,
		buckets_json TEXT,
		error TEXT,
		started_at TEXT NOT NULL,
		elapsed_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_run_id ON runs(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_path ON runs(path);
	`
	_, err := l.db.Exec(schema)
	return err
}

// Record stores the outcome of one file run. runErr is the error the run
// failed with, if any.
func (l *Ledger) Record(ctx context.Context, runID string, res sorter.Result, runErr error) error {
	buckets, err := json.Marshal(res.Buckets)
	if err != nil {
		return err
	}
	var errText string
	if runErr != nil {
		errText = runErr.Error()
	}
	started := l.now().UTC().Add(-res.Elapsed)

	l.mu.Lock()
	defer l.mu.Unlock()

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, path, lines, dropped, good, buckets_json, error, started_at, elapsed_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, res.Path, res.Lines, res.Dropped, res.Good(), string(buckets), errText,
		started.Format(time.RFC3339Nano), res.Elapsed.Milliseconds())
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. A limit of 0 or less
// returns every entry.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, run_id, path, lines, dropped, good, buckets_json, error, started_at, elapsed_ms
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e         Entry
			buckets   sql.NullString
			errText   sql.NullString
			started   string
			elapsedMS int64
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Path, &e.Lines, &e.Dropped, &e.Good,
			&buckets, &errText, &started, &elapsedMS); err != nil {
			return nil, err
		}
		if buckets.Valid && buckets.String != "" {
			if err := json.Unmarshal([]byte(buckets.String), &e.Buckets); err != nil {
				return nil, fmt.Errorf("run %d: decode buckets: %w", e.ID, err)
			}
		}
		e.Error = errText.String
		e.StartedAt, err = time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, fmt.Errorf("run %d: parse started_at: %w", e.ID, err)
		}
		e.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}
