package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Well-known keys.
const (
	KeyHabits        = "habits"
	KeyLastResetDate = "last_reset_date"
)

// Entry is a single key-value pair for SetMany and Update.
type Entry struct {
	Key   string
	Value string
}

// Get returns the value stored under key.
// A missing key is not an error: ok is false and value is empty.
func (s *Store) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	return get(ctx, s.db, key)
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.SetMany(ctx, Entry{Key: key, Value: value})
}

// SetMany stores all entries in a single transaction. Either every entry is
// written or none is.
func (s *Store) SetMany(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	return s.Update(ctx, func(Getter) ([]Entry, error) { return entries, nil })
}

// Getter reads a value inside an Update transaction.
type Getter func(key string) (value string, ok bool, err error)

// ErrConflict reports that a value an Update depended on had already been
// changed by another writer.
var ErrConflict = errors.New("stored value changed concurrently")

// Update runs a read-modify-write in one write transaction. fn reads through
// get and returns the entries to store; returning none commits nothing. An
// error from fn rolls the transaction back and is returned as is.
//
// Transactions take the write lock when they begin, so no other process can
// write between fn's reads and the commit.
func (s *Store) Update(ctx context.Context, fn func(get Getter) ([]Entry, error)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	entries, err := fn(func(key string) (string, bool, error) {
		return get(ctx, tx, key)
	})
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	for _, e := range entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO kv (key, value, updated_at)
			VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
			ON CONFLICT(key) DO UPDATE SET
				value = excluded.value,
				updated_at = excluded.updated_at
		`, e.Key, e.Value)
		if err != nil {
			return fmt.Errorf("set %q: %w", e.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update: commit: %w", err)
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func get(ctx context.Context, q queryer, key string) (value string, ok bool, err error) {
	err = q.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}
