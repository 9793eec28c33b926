package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// User is a row of the users table. One user owns zero or more file records.
type User struct {
	ID       int64  `json:"id"`
	UUID     string `json:"uuid"`
	Username string `json:"username"`
}

// CreateUser inserts a new user with a fresh UUID and returns the stored row.
func (s *Store) CreateUser(ctx context.Context, username string) (*User, error) {
	id := uuid.NewString()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (uuid, username) VALUES (?, ?)`, id, username)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read user id: %w", err)
	}
	s.logger.Debug("user created", "id", rowID, "username", username)
	return &User{ID: rowID, UUID: id, Username: username}, nil
}

// LookupUser returns the user's id when a row matches both the id and the
// correlation uuid, or ErrNotFound.
func (s *Store) LookupUser(ctx context.Context, id int64, userUUID string) (int64, error) {
	var rowID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM users WHERE id = ? AND uuid = ?`, id, userUUID).Scan(&rowID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up user: %w", err)
	}
	return rowID, nil
}

// DeleteUser removes a user; their file records go with them via the
// foreign-key cascade.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
