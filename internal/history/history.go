// Package history persists loop iteration outcomes to SQLite so runs can be
// inspected after the fact. It subscribes to the event bus; the loop never
// talks to it directly.
package history

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nextlevelbuilder/finch/internal/bus"
)

// Entry is one recorded loop iteration.
type Entry struct {
	ID      int64
	RunID   string
	Agent   string
	Task    string
	Outcome bus.Outcome
	Detail  string
	PostID  string
	Time    time.Time
}

// Store is the SQLite-backed action journal.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (or creates) the journal database at the given path.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	slog.Info("action journal opened", "path", dbPath)
	return s, nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS actions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			agent TEXT NOT NULL,
			task TEXT NOT NULL,
			outcome TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			post_id TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_actions_run ON actions(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_actions_agent ON actions(agent)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:min(len(stmt), 40)], err)
		}
	}
	return nil
}

// Record appends one iteration to the journal.
func (s *Store) Record(e bus.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO actions (run_id, agent, task, outcome, detail, post_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Agent, e.Task, string(e.Outcome), e.Detail, e.PostID, e.Time.Unix())
	if err != nil {
		return fmt.Errorf("record action: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, run_id, agent, task, outcome, detail, post_id, created_at
		FROM actions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var outcome string
		var unix int64
		if err := rows.Scan(&e.ID, &e.RunID, &e.Agent, &e.Task, &outcome, &e.Detail, &e.PostID, &unix); err != nil {
			return nil, err
		}
		e.Outcome = bus.Outcome(outcome)
		e.Time = time.Unix(unix, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Handler adapts the store into a bus subscriber. Write failures are logged,
// not propagated; the journal must never stall the loop.
func (s *Store) Handler() bus.Handler {
	return func(e bus.Event) {
		if err := s.Record(e); err != nil {
			slog.Error("journal write failed", "error", err)
		}
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
