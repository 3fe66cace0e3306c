// ABOUTME: SQLite implementation of TokenStore using modernc.org/sqlite
// ABOUTME: Stores the bearer token in a single named slot with automatic schema creation

package session

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// tokenSlot is the single named slot holding the admin bearer token.
const tokenSlot = "admin_token"

// SQLiteStore implements TokenStore backed by a local SQLite database.
// This is the persistent analog of the dashboard's key-value storage:
// the token survives restarts until explicitly cleared.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) the credential database at the given
// path. Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "tokenstore")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating credential directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening credential database: %w", err)
	}

	// WAL keeps the monitor goroutine and foreground calls from blocking
	// each other
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS credentials (
			slot TEXT PRIMARY KEY,
			token TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Debug("credential store initialized", "path", path)
	return &SQLiteStore{db: db, logger: logger}, nil
}

// Get returns the stored token, or an empty string if the slot is absent.
func (s *SQLiteStore) Get(ctx context.Context) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx,
		`SELECT token FROM credentials WHERE slot = ?`, tokenSlot,
	).Scan(&token)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying token: %w", err)
	}
	return token, nil
}

// Set persists the token. An empty string deletes the slot so that absence
// unambiguously means "logged out".
func (s *SQLiteStore) Set(ctx context.Context, token string) error {
	if token == "" {
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM credentials WHERE slot = ?`, tokenSlot,
		); err != nil {
			return fmt.Errorf("clearing token: %w", err)
		}
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (slot, token, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at
	`, tokenSlot, token, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("storing token: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
