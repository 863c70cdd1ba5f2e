// Package history records closed sessions in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/sproutapp/sprout/internal/registry"
)

// SchemaVersion is the current schema version.
const SchemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS sessions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    display_name TEXT NOT NULL,
    started_at TEXT NOT NULL,
    ended_at TEXT NOT NULL,
    duration_seconds INTEGER NOT NULL,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);

CREATE TABLE IF NOT EXISTS schema_meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// Store persists session history rows.
type Store struct {
	db *sql.DB
}

// Open creates or opens the history database at dir/history.db, creating
// dir if needed so Open works before any other component has touched it.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}
	path := filepath.Join(dir, "history.db")

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with a single writer

	if err := initSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}

	return &Store{db: db}, nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaV1); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx,
		`INSERT OR REPLACE INTO schema_meta (key, value) VALUES ('version', ?)`,
		fmt.Sprintf("%d", SchemaVersion))
	return err
}

// Record inserts one closed-session row.
func (s *Store) Record(ctx context.Context, h registry.HistoryEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, display_name, started_at, ended_at, duration_seconds, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(h.SessionID),
		h.DisplayName,
		h.Start.UTC().Format(time.RFC3339),
		h.End.UTC().Format(time.RFC3339),
		int64(h.Duration.Seconds()),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording session history: %w", err)
	}
	return nil
}

// Recent returns up to n history entries, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]registry.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, display_name, started_at, ended_at, duration_seconds
		 FROM sessions ORDER BY ended_at DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("querying session history: %w", err)
	}
	defer rows.Close()

	var out []registry.HistoryEntry
	for rows.Next() {
		var (
			sid, name, started, ended string
			seconds                   int64
		)
		if err := rows.Scan(&sid, &name, &started, &ended, &seconds); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		entry := registry.HistoryEntry{
			SessionID:   registry.SessionID(sid),
			DisplayName: name,
			Duration:    time.Duration(seconds) * time.Second,
		}
		entry.Start, _ = time.Parse(time.RFC3339, started)
		entry.End, _ = time.Parse(time.RFC3339, ended)
		out = append(out, entry)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
