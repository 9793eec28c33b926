package logging

import (
	"bytes"
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

// Logger is a wrapper around the log.Logger from the charmbracelet/log package.
// Buffer is non-nil only for loggers created with NewTestLogger, where it
// captures everything the logger writes.
type Logger struct {
	*log.Logger
	Buffer *bytes.Buffer
}

var (
	logger *Logger
	mu     sync.Mutex
)

// CreateLogger sets up the process-wide logger. Safe to call more than once;
// only the first call has an effect.
func CreateLogger() {
	mu.Lock()
	defer mu.Unlock()
	if logger != nil {
		return
	}

	baseLogger := log.New(os.Stderr)

	if os.Getenv("DEBUG") == "1" {
		baseLogger = log.NewWithOptions(os.Stderr, log.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			Prefix:          "audioforge",
		})
		baseLogger.SetLevel(log.DebugLevel)
	} else {
		baseLogger.SetLevel(log.InfoLevel)
	}

	logger = &Logger{Logger: baseLogger}
}

// NewTestLogger returns a logger that writes into an in-memory buffer so tests
// can assert on output.
func NewTestLogger() *Logger {
	var buf bytes.Buffer
	baseLogger := log.NewWithOptions(&buf, log.Options{
		ReportTimestamp: false,
	})
	baseLogger.SetLevel(log.DebugLevel)
	return &Logger{Logger: baseLogger, Buffer: &buf}
}

// GetOutput returns everything the logger has written so far. Empty for
// non-test loggers.
func (l *Logger) GetOutput() string {
	if l.Buffer == nil {
		return ""
	}
	return l.Buffer.String()
}

// GetLogger returns the Logger instance.
func GetLogger() *Logger {
	ensureInitialized()
	return logger
}

// SetTestLogger replaces the process-wide logger. Intended for tests.
func SetTestLogger(l *Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

// ResetForTest clears the process-wide logger so it can be recreated.
func ResetForTest() {
	mu.Lock()
	defer mu.Unlock()
	logger = nil
}

// Debug logs debug messages if debug logging is enabled.
func Debug(msg interface{}, keyvals ...interface{}) {
	ensureInitialized()
	logger.Debug(msg, keyvals...)
}

// Info logs informational messages.
func Info(msg interface{}, keyvals ...interface{}) {
	ensureInitialized()
	logger.Info(msg, keyvals...)
}

// Warn logs warning messages.
func Warn(msg interface{}, keyvals ...interface{}) {
	ensureInitialized()
	logger.Warn(msg, keyvals...)
}

// Error logs error messages.
func Error(msg interface{}, keyvals ...interface{}) {
	ensureInitialized()
	logger.Error(msg, keyvals...)
}

// Fatal logs a fatal message and exits the program.
func Fatal(msg interface{}, keyvals ...interface{}) {
	ensureInitialized()
	logger.Fatal(msg, keyvals...)
}

func ensureInitialized() {
	if logger == nil {
		CreateLogger()
	}
}
