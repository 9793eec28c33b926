package convert

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/audioforge/audioforge/pkg/logging"
	"github.com/audioforge/audioforge/pkg/pool"
	"github.com/audioforge/audioforge/pkg/store"
	"github.com/audioforge/audioforge/pkg/upload"
	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
)

// UserLookup validates a caller's identity against the user store.
type UserLookup interface {
	LookupUser(ctx context.Context, id int64, userUUID string) (int64, error)
}

// FileRecorder persists converted-file metadata.
type FileRecorder interface {
	InsertFile(ctx context.Context, userID int64, filePath, filename string) (*store.FileRecord, error)
}

// FileEncoder turns a staged input file into an output file.
type FileEncoder interface {
	Encode(ctx context.Context, inPath, outPath string) (Result, error)
}

// Request describes one convert call.
type Request struct {
	UserID   int64
	UserUUID string
	Filename string
	Body     io.Reader
}

// Orchestrator sequences the convert pipeline: validate user, stage the
// upload, allocate an output path, run the encoder on the worker pool,
// persist the record and build the download URL. The staging file is removed
// before any terminal state, success or failure.
type Orchestrator struct {
	fs           afero.Fs
	users        UserLookup
	files        FileRecorder
	encoder      FileEncoder
	alloc        *PathAllocator
	workers      *pool.Pool
	downloadBase string
	logger       *logging.Logger
}

// NewOrchestrator wires the pipeline. The worker pool is created once at
// startup and injected here; the orchestrator never owns or resizes it.
func NewOrchestrator(
	fs afero.Fs,
	users UserLookup,
	files FileRecorder,
	encoder FileEncoder,
	alloc *PathAllocator,
	workers *pool.Pool,
	downloadBase string,
	logger *logging.Logger,
) *Orchestrator {
	return &Orchestrator{
		fs:           fs,
		users:        users,
		files:        files,
		encoder:      encoder,
		alloc:        alloc,
		workers:      workers,
		downloadBase: downloadBase,
		logger:       logger,
	}
}

// Convert runs the full pipeline and returns the download URL for the new
// record. Failures surface as typed errors: store.ErrNotFound for an unknown
// user, *EncodeError for an unconvertible input, anything else is an
// infrastructure fault.
func (o *Orchestrator) Convert(ctx context.Context, req Request) (string, error) {
	userID, err := o.users.LookupUser(ctx, req.UserID, req.UserUUID)
	if err != nil {
		return "", err
	}

	stem := Stem(req.Filename)

	staging, err := upload.NewStagingFile(o.fs)
	if err != nil {
		return "", err
	}
	defer staging.Remove(o.logger)

	size, err := staging.FillFrom(upload.NewChunkReader(req.Body))
	if err != nil {
		return "", fmt.Errorf("failed to stage upload: %w", err)
	}
	o.logger.Debug("upload staged", "size", humanize.Bytes(uint64(size)), "path", staging.Path())

	outPath, err := o.alloc.OutputPath(time.Now(), stem)
	if err != nil {
		return "", err
	}

	// The encoder blocks for the full run of the subprocess, so it is handed
	// to the pool and awaited here. The job gets a fresh context: a client
	// hanging up must not kill an in-flight encode, only the encoder's own
	// timeout bounds it.
	var res Result
	task, err := o.workers.Submit(func() error {
		var encErr error
		res, encErr = o.encoder.Encode(context.Background(), staging.Path(), outPath)
		return encErr
	})
	if err != nil {
		return "", err
	}
	if err := task.Wait(ctx); err != nil {
		return "", err
	}

	if res.ExitCode != 0 {
		// Whatever partial output ffmpeg left behind is its own concern.
		return "", &EncodeError{ExitCode: res.ExitCode, Stderr: res.Stderr}
	}

	rec, err := o.files.InsertFile(ctx, userID, outPath, stem)
	if err != nil {
		return "", err
	}
	o.logger.Info("file converted", "record_id", rec.ID, "user_id", userID, "path", outPath)

	return fmt.Sprintf("%s/files.record?record_id=%d&user_id=%d", o.downloadBase, rec.ID, userID), nil
}

// Stem strips the last extension from a filename, mirroring a split on the
// final dot.
func Stem(filename string) string {
	if i := strings.LastIndex(filename, "."); i >= 0 {
		return filename[:i]
	}
	return filename
}
