package convert

import (
	"context"
	"fmt"
	"time"

	execute "github.com/alexellis/go-execute/v2"
	"github.com/audioforge/audioforge/pkg/logging"
)

// Target encoding parameters, matching what the service promises: 44.1 kHz
// stereo MP3 at 192 kbps.
const (
	sampleRate = "44100"
	channels   = "2"
	bitrate    = "192k"
)

// TaskRunner executes an external command task. It exists so tests can swap
// the real subprocess for a canned result.
type TaskRunner interface {
	Run(ctx context.Context, task execute.ExecTask) (execute.ExecResult, error)
}

// DefaultTaskRunner runs tasks with go-execute.
type DefaultTaskRunner struct{}

func (DefaultTaskRunner) Run(ctx context.Context, task execute.ExecTask) (execute.ExecResult, error) {
	return task.Execute(ctx)
}

// Result carries the outcome of one encoder invocation. Exit code zero means
// success; stdout and stderr are kept for server-side diagnostics only and
// are never shown to clients.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Encoder invokes ffmpeg against a staged input file. The call blocks the
// worker it runs on until the subprocess exits, so it must only ever run on
// the worker pool, never on a request-handling goroutine.
type Encoder struct {
	bin     string
	timeout time.Duration
	runner  TaskRunner
	logger  *logging.Logger
}

// NewEncoder returns an encoder using the given ffmpeg binary. A zero timeout
// disables bounded execution; anything else force-terminates a hung encoder
// after that duration.
func NewEncoder(bin string, timeout time.Duration, logger *logging.Logger) *Encoder {
	return NewEncoderWithRunner(bin, timeout, DefaultTaskRunner{}, logger)
}

// NewEncoderWithRunner is NewEncoder with an injected task runner.
func NewEncoderWithRunner(bin string, timeout time.Duration, runner TaskRunner, logger *logging.Logger) *Encoder {
	return &Encoder{bin: bin, timeout: timeout, runner: runner, logger: logger}
}

// Encode converts inPath to outPath. Stdin is left unattached so ffmpeg can
// never block waiting on it; stdout and stderr are fully captured. A nonzero
// exit code is reported through Result, not as an error; errors mean the
// process could not run or was forcibly terminated.
func (e *Encoder) Encode(ctx context.Context, inPath, outPath string) (Result, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	task := execute.ExecTask{
		Command: e.bin,
		Args: []string{
			"-y",
			"-i", inPath,
			"-vn",
			"-ar", sampleRate,
			"-ac", channels,
			"-b:a", bitrate,
			outPath,
		},
	}
	e.logger.Debug("invoking encoder", "command", task.Command, "in", inPath, "out", outPath)

	res, err := e.runner.Run(ctx, task)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, fmt.Errorf("encoder terminated after %s: %w", e.timeout, ctx.Err())
		}
		return Result{}, fmt.Errorf("failed to run encoder: %w", err)
	}

	if res.ExitCode != 0 {
		e.logger.Warn("encoder exited with non-zero code", "code", res.ExitCode, "stderr", res.Stderr)
	}
	return Result{ExitCode: res.ExitCode, Stdout: res.Stdout, Stderr: res.Stderr}, nil
}
