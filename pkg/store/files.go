package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FileRecord is a row of the mp3_files table describing one converted file.
// Records are created on successful conversion and never mutated.
type FileRecord struct {
	ID        int64
	UUID      string
	CreatedAt time.Time
	FilePath  string
	Filename  string
	UserID    int64
}

// InsertFile records a converted file for its owning user and returns the
// stored row.
func (s *Store) InsertFile(ctx context.Context, userID int64, filePath, filename string) (*FileRecord, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO mp3_files (uuid, created_at, file_path, filename, user_id)
		 VALUES (?, ?, ?, ?, ?)`,
		id, now, filePath, filename, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert file record: %w", err)
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read record id: %w", err)
	}
	s.logger.Debug("file record created", "id", rowID, "user_id", userID, "path", filePath)
	return &FileRecord{
		ID:        rowID,
		UUID:      id,
		CreatedAt: now,
		FilePath:  filePath,
		Filename:  filename,
		UserID:    userID,
	}, nil
}

// GetFileByUser returns the record only when it exists and belongs to the
// given user; any other combination yields ErrNotFound.
func (s *Store) GetFileByUser(ctx context.Context, userID, recordID int64) (*FileRecord, error) {
	rec := &FileRecord{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, uuid, created_at, file_path, filename, user_id
		 FROM mp3_files WHERE id = ? AND user_id = ?`,
		recordID, userID).
		Scan(&rec.ID, &rec.UUID, &rec.CreatedAt, &rec.FilePath, &rec.Filename, &rec.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up file record: %w", err)
	}
	return rec, nil
}
