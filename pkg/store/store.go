package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/audioforge/audioforge/pkg/logging"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a lookup matches no row. Handlers map it to a
// 404 response without leaking detail.
var ErrNotFound = errors.New("store: not found")

// Store wraps the relational database holding users and converted-file
// records. Every operation uses a short-lived context-aware statement; the
// connection is never held across a conversion.
type Store struct {
	db     *sql.DB
	logger *logging.Logger
}

// Open opens (or creates) the SQLite database at path with foreign keys
// enforced, so deleting a user cascades to their file records.
func Open(path string, logger *logging.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Migrate creates the schema when it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			uuid TEXT NOT NULL,
			username TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS mp3_files (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			uuid TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			file_path TEXT NOT NULL,
			filename TEXT NOT NULL,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_mp3_files_user_id ON mp3_files(user_id)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	s.logger.Debug("database schema ready")
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
