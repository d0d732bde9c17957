// Package journal keeps a queryable history of failures written by the HTTP
// adapter in a SQLite database.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/commerceapi/apierrors"
)

// Store is a SQLite backed failure journal. It implements apierrors.Sink.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ apierrors.Sink = (*Store)(nil)

// Open opens or creates the journal at path. Use ":memory:" for a throwaway
// in-memory journal.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Every connection to ":memory:" would otherwise see its own database.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS failures (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL,
		kind TEXT NOT NULL,
		category TEXT NOT NULL,
		message TEXT NOT NULL,
		status INTEGER NOT NULL,
		retryable INTEGER NOT NULL,
		method TEXT,
		path TEXT,
		recorded_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_failures_kind ON failures(kind);
	CREATE INDEX IF NOT EXISTS idx_failures_recorded_at ON failures(recorded_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordFailure appends ev to the journal.
func (s *Store) RecordFailure(ctx context.Context, ev apierrors.FailureEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recordedAt := ev.Time
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO failures (id, kind, category, message, status, retryable, method, path, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Kind, ev.Category, ev.Message, ev.Status, ev.Retryable, ev.Method, ev.Path, recordedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert failure: %w", err)
	}
	return nil
}

// Recent returns up to limit failures, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]apierrors.FailureEvent, error) {
	if limit <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, category, message, status, retryable, method, path, recorded_at
		 FROM failures ORDER BY seq DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var events []apierrors.FailureEvent
	for rows.Next() {
		var ev apierrors.FailureEvent
		var method, path sql.NullString
		var recordedAt int64
		if err := rows.Scan(&ev.ID, &ev.Kind, &ev.Category, &ev.Message, &ev.Status, &ev.Retryable, &method, &path, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		ev.Method, ev.Path = method.String, path.String
		ev.Time = time.UnixMilli(recordedAt).UTC()
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failures: %w", err)
	}
	return events, nil
}

// CountByKind returns how many failures of each kind are in the journal.
func (s *Store) CountByKind(ctx context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT kind, COUNT(*) FROM failures GROUP BY kind")
	if err != nil {
		return nil, fmt.Errorf("count failures: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}

// Prune deletes failures recorded before cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM failures WHERE recorded_at < ?", cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune failures: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
