// Package store caches computed version results in SQLite.
//
// Values are stored as JSON under string keys with an expiry time.
// Expired rows read as misses and are removed by Purge.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration
)

// ErrEmptyProject is returned by the key helpers for an empty slug.
var ErrEmptyProject = errors.New("project slug is empty")

// LatestVersionKey returns the key for a project's latest version.
func LatestVersionKey(slug string) (string, error) {
	return projectKey(slug, "latest_version")
}

// LatestMajorVersionsKey returns the key for a project's per-major map.
func LatestMajorVersionsKey(slug string) (string, error) {
	return projectKey(slug, "latest_major_versions")
}

// LatestMinorVersionsKey returns the key for a project's per-minor map.
func LatestMinorVersionsKey(slug string) (string, error) {
	return projectKey(slug, "latest_minor_versions")
}

func projectKey(slug, suffix string) (string, error) {
	if slug == "" {
		return "", ErrEmptyProject
	}
	return slug + "_" + suffix, nil
}

// Store is a key/value result cache backed by SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates a store at the given path. Use ":memory:" for a
// throwaway store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes
	// writers.
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, now: time.Now}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS results (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			expires_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_results_expires ON results(expires_at);
	`)
	if err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

// Put stores value as JSON under key for ttl.
func (s *Store) Put(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", key, err)
	}

	now := s.now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO results (key, value, updated_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at,
			expires_at = excluded.expires_at
	`, key, string(data), now.UTC().Format(time.RFC3339Nano), now.Add(ttl).UnixNano())
	if err != nil {
		return fmt.Errorf("storing %s: %w", key, err)
	}
	return nil
}

// Get decodes the value stored under key into dst. It reports false for
// missing and expired keys.
func (s *Store) Get(ctx context.Context, key string, dst any) (bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM results WHERE key = ? AND expires_at > ?
	`, key, s.now().UnixNano()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(value), dst); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM results WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// Purge removes expired rows and returns how many were deleted.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM results WHERE expires_at <= ?`, s.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("purging results: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes every row and returns how many were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM results`)
	if err != nil {
		return 0, fmt.Errorf("clearing results: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of unexpired rows.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM results WHERE expires_at > ?
	`, s.now().UnixNano()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting results: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
