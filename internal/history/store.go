// Package history records pipeline runs and chat exchanges in sqlite.
//
// DESIGN: Recording is best-effort and observational: a history failure must
// never fail the run it was recording, so write errors are logged and
// swallowed. Nothing in here feeds back into provider requests.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// RunEntry describes one completed pipeline run.
type RunEntry struct {
	ID          string
	Kind        string // "initial" or "debug"
	Provider    string
	Model       string
	Screenshots int
	Success     bool
	FailureKind string
	Duration    time.Duration
}

// ChatEntry describes one chat exchange.
type ChatEntry struct {
	ID          string
	Provider    string
	Model       string
	Success     bool
	FailureKind string
	Duration    time.Duration
}

// Recorder is the sink the orchestrator and chat bridge write to.
type Recorder interface {
	RecordRun(e RunEntry)
	RecordChat(e ChatEntry)
}

// Nop is a Recorder that discards everything; used when history is disabled.
type Nop struct{}

func (Nop) RecordRun(RunEntry)   {}
func (Nop) RecordChat(ChatEntry) {}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	kind         TEXT NOT NULL,
	provider     TEXT NOT NULL,
	model        TEXT NOT NULL,
	screenshots  INTEGER NOT NULL,
	success      INTEGER NOT NULL,
	failure_kind TEXT NOT NULL DEFAULT '',
	duration_ms  INTEGER NOT NULL,
	created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS chats (
	id           TEXT PRIMARY KEY,
	provider     TEXT NOT NULL,
	model        TEXT NOT NULL,
	success      INTEGER NOT NULL,
	failure_kind TEXT NOT NULL DEFAULT '',
	duration_ms  INTEGER NOT NULL,
	created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Store is the sqlite-backed Recorder.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database at path.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history db '%s': %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// RecordRun stores a run entry. Errors are logged, never returned.
func (s *Store) RecordRun(e RunEntry) {
	_, err := s.db.Exec(
		`INSERT INTO runs (id, kind, provider, model, screenshots, success, failure_kind, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Kind, e.Provider, e.Model, e.Screenshots, e.Success, e.FailureKind, e.Duration.Milliseconds(),
	)
	if err != nil {
		log.Warn().Err(err).Str("run_id", e.ID).Msg("failed to record run history")
	}
}

// RecordChat stores a chat entry. Errors are logged, never returned.
func (s *Store) RecordChat(e ChatEntry) {
	_, err := s.db.Exec(
		`INSERT INTO chats (id, provider, model, success, failure_kind, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Provider, e.Model, e.Success, e.FailureKind, e.Duration.Milliseconds(),
	)
	if err != nil {
		log.Warn().Err(err).Str("chat_id", e.ID).Msg("failed to record chat history")
	}
}

// RecentRuns returns the most recent run entries, newest first.
func (s *Store) RecentRuns(limit int) ([]RunEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, kind, provider, model, screenshots, success, failure_kind, duration_ms
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query run history: %w", err)
	}
	defer rows.Close()

	var entries []RunEntry
	for rows.Next() {
		var e RunEntry
		var durationMS int64
		if err := rows.Scan(&e.ID, &e.Kind, &e.Provider, &e.Model, &e.Screenshots, &e.Success, &e.FailureKind, &durationMS); err != nil {
			return nil, fmt.Errorf("failed to scan run history row: %w", err)
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ensure Store implements Recorder
var _ Recorder = (*Store)(nil)
var _ Recorder = Nop{}
