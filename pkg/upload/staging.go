package upload

import (
	"errors"
	"fmt"
	"io"

	"github.com/audioforge/audioforge/pkg/logging"
	"github.com/spf13/afero"
)

// StagingFile is an exclusively-owned temporary file accumulating an upload
// before conversion. It lives for one request and must be removed on every
// exit path; callers defer Remove immediately after creation.
type StagingFile struct {
	fs      afero.Fs
	file    afero.File
	path    string
	size    int64
	removed bool
}

// NewStagingFile creates a process-unique temp file opened for writing.
func NewStagingFile(fs afero.Fs) (*StagingFile, error) {
	file, err := afero.TempFile(fs, "", "audioforge-upload-*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging file: %w", err)
	}
	return &StagingFile{fs: fs, file: file, path: file.Name()}, nil
}

// Append writes a chunk to the end of the file before the caller reads the
// next one, so peak memory stays bounded to a single chunk.
func (s *StagingFile) Append(chunk []byte) error {
	if s.removed {
		return errors.New("staging file already removed")
	}
	if _, err := s.file.Write(chunk); err != nil {
		return fmt.Errorf("failed to append to staging file: %w", err)
	}
	s.size += int64(len(chunk))
	return nil
}

// FillFrom drains the chunk reader into the file and returns the byte count.
// A read failure is propagated; the partially written file stays on disk for
// the deferred Remove to collect.
func (s *StagingFile) FillFrom(r *ChunkReader) (int64, error) {
	for {
		chunk, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return s.size, err
		}
		if err := s.Append(chunk); err != nil {
			return s.size, err
		}
	}
	if err := s.file.Sync(); err != nil {
		return s.size, fmt.Errorf("failed to sync staging file: %w", err)
	}
	return s.size, nil
}

// Path returns the on-disk location handed to the encoder.
func (s *StagingFile) Path() string {
	return s.path
}

// Size returns the number of bytes appended so far.
func (s *StagingFile) Size() int64 {
	return s.size
}

// Remove closes and deletes the file. Idempotent; failures are logged rather
// than surfaced since removal runs on already-failing paths.
func (s *StagingFile) Remove(logger *logging.Logger) {
	if s.removed {
		return
	}
	s.removed = true
	if err := s.file.Close(); err != nil {
		logger.Warn("failed to close staging file", "path", s.path, "error", err)
	}
	if err := s.fs.Remove(s.path); err != nil {
		logger.Warn("failed to remove staging file", "path", s.path, "error", err)
	}
}
