// Package store implements the backing store for todos: Postgres-style
// SQL accessed through database/sql, with ownership-scoped reads and
// writes and a change-feed emission after every committed write.
//
// The store is the single source of truth. Client-side collections
// (package livecollection) are caches that converge on it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/shipfast/livesync/todo"
)

// Publisher receives a change event for every committed write. The feed
// hub implements this; tests substitute their own.
type Publisher interface {
	Publish(event todo.ChangeEvent)
}

// nopPublisher drops events. Used when no feed is attached.
type nopPublisher struct{}

func (nopPublisher) Publish(todo.ChangeEvent) {}

// Store provides ownership-scoped access to the todos and user_profiles
// tables.
type Store struct {
	db        *sql.DB
	publisher Publisher
	now       func() time.Time
}

// Options configures how the store is opened.
type Options struct {
	// Publisher receives change events after committed writes.
	// If nil, events are dropped.
	Publisher Publisher
}

// Open opens (creating if necessary) the database at path and applies
// pending migrations.
func Open(path string, opts Options) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set journal_mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	store := &Store{db: db, publisher: opts.Publisher, now: time.Now}
	if store.publisher == nil {
		store.publisher = nopPublisher{}
	}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Reset removes all rows. Intended for the dev-only reset endpoint and
// tests; never reachable in production configurations.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM todos"); err != nil {
		return fmt.Errorf("reset todos: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM user_profiles"); err != nil {
		return fmt.Errorf("reset profiles: %w", err)
	}
	return nil
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// timeLayout pads the fraction to a fixed six digits. Timestamps are
// compared as TEXT in SQL, so the encoding must sort lexicographically
// in chronological order; RFC3339Nano trims trailing zeros and breaks
// that.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func encodeTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return encodeTime(*t)
}

func decodeTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return t, nil
}
