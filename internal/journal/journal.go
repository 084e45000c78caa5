// Package journal records hook dispatch attempts in a local SQLite
// database. Recording is optional diagnostics: failures are logged and
// never influence the HTTP response, and no secrets, signatures, or
// request bodies are ever stored.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Outcome classifies a spawn attempt.
type Outcome string

const (
	OutcomeStarted Outcome = "started"
	OutcomeFailed  Outcome = "failed"
)

// Entry is one dispatch record: a single hook launch attempt.
type Entry struct {
	ID        string
	URL       string
	HookType  string
	Event     string
	Repo      string
	Command   string
	Outcome   Outcome
	Error     string
	CreatedAt time.Time
}

// Journal is a SQLite-backed dispatch log.
type Journal struct {
	db *sql.DB
}

// Open opens (and creates if needed) the journal database at path and
// ensures the table exists.
func Open(ctx context.Context, path string) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("journal path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(pctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}

	if _, err := db.ExecContext(pctx, `CREATE TABLE IF NOT EXISTS dispatch_log (
  id         TEXT PRIMARY KEY,
  url        TEXT NOT NULL,
  hook_type  TEXT NOT NULL,
  event      TEXT,
  repo       TEXT,
  command    TEXT NOT NULL,
  outcome    TEXT NOT NULL,
  error      TEXT,
  created_at TEXT NOT NULL
);`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap journal: %w", err)
	}
	if _, err := db.ExecContext(pctx,
		`CREATE INDEX IF NOT EXISTS dispatch_log_created_at_idx ON dispatch_log(created_at);`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap journal index: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close releases the underlying database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record inserts one dispatch entry and returns its id.
func (j *Journal) Record(ctx context.Context, e Entry) (string, error) {
	if e.URL == "" {
		return "", fmt.Errorf("url is empty")
	}
	if e.Command == "" {
		return "", fmt.Errorf("command is empty")
	}
	if e.Outcome != OutcomeStarted && e.Outcome != OutcomeFailed {
		return "", fmt.Errorf("invalid outcome %q", e.Outcome)
	}

	id := e.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := j.db.ExecContext(ctx, `
INSERT INTO dispatch_log(id, url, hook_type, event, repo, command, outcome, error, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?);
`, id, e.URL, e.HookType, e.Event, e.Repo, e.Command, string(e.Outcome), e.Error,
		createdAt.Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("record dispatch: %w", err)
	}
	return id, nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := j.db.QueryContext(ctx, `
SELECT id, url, hook_type, event, repo, command, outcome, error, created_at
FROM dispatch_log
ORDER BY created_at DESC, rowid DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query dispatch log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			event      sql.NullString
			repo       sql.NullString
			errText    sql.NullString
			outcomeS   string
			createdAtS string
		)
		if err := rows.Scan(&e.ID, &e.URL, &e.HookType, &event, &repo, &e.Command,
			&outcomeS, &errText, &createdAtS); err != nil {
			return nil, fmt.Errorf("scan dispatch row: %w", err)
		}
		e.Event = event.String
		e.Repo = repo.String
		e.Error = errText.String
		e.Outcome = Outcome(outcomeS)
		if ts, err := time.Parse(time.RFC3339Nano, createdAtS); err == nil {
			e.CreatedAt = ts
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dispatch rows: %w", err)
	}
	return entries, nil
}
