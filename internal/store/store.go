// Package store persists the small bits of host state that outlive a
// process restart — today only the bearer credential. Bookings are
// never persisted; the calendar is a pure view over the upstream API.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

const tokenKey = "bearer_token"

// Store is a SQLite-backed key/value settings store.
type Store struct {
	*sql.DB
	logger *zerolog.Logger
}

// Open initializes the settings database, creating it if needed.
func Open(path string, logger *zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{DB: db, logger: logger}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("settings store initialized")
	return s, nil
}

func (s *Store) createTables() error {
	_, err := s.Exec(`
		CREATE TABLE IF NOT EXISTS settings (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`)
	return err
}

// Token returns the persisted bearer credential, or "" when none is stored.
func (s *Store) Token(ctx context.Context) (string, error) {
	row := s.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, tokenKey)
	var value string
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

// SaveToken stores or replaces the bearer credential.
func (s *Store) SaveToken(ctx context.Context, bearer string) error {
	_, err := s.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		tokenKey, bearer, time.Now())
	return err
}

// ClearToken removes the persisted credential, forcing a re-prompt.
func (s *Store) ClearToken(ctx context.Context) error {
	_, err := s.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, tokenKey)
	return err
}
