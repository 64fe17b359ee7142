package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Log levels supported by the logger
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// Options configures a Logger.
type Options struct {
	// File is the log file path. Empty means stderr.
	File string
	// Level is one of DEBUG, INFO, WARN, ERROR (case-insensitive).
	Level string
	// Rotation applies only when File is set.
	Rotation RotationConfig
}

// Logger provides structured logging with persistent attributes.
// It is safe for concurrent use.
type Logger struct {
	logger *slog.Logger
	closer io.Closer
	mu     *sync.Mutex // Protects closer; shared with child loggers
	attrs  []slog.Attr // Persistent attributes (run, pipeline, task)
}

// New creates a Logger that writes JSON lines to opts.File, or to stderr
// when no file is configured.
func New(opts Options) (*Logger, error) {
	var writer io.Writer = os.Stderr
	var closer io.Closer

	if opts.File != "" {
		rw, err := NewRotatingWriter(opts.File, opts.Rotation)
		if err != nil {
			return nil, err
		}
		writer = rw
		closer = rw
	}

	return NewWithWriter(writer, opts.Level, closer), nil
}

// NewWithWriter creates a Logger on top of an arbitrary writer. closer may be
// nil; when set it is closed by Close.
func NewWithWriter(w io.Writer, level string, closer io.Closer) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	})

	return &Logger{
		logger: slog.New(handler),
		closer: closer,
		mu:     &sync.Mutex{},
		attrs:  make([]slog.Attr, 0),
	}
}

// parseLevel converts a string log level to slog.Level.
// Defaults to INFO if the level string is not recognized.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRun returns a child Logger tagged with the run ID of one CLI invocation.
func (l *Logger) WithRun(runID string) *Logger {
	return l.withAttr(slog.String("run_id", runID))
}

// WithPipeline returns a child Logger tagged with a composite task name.
func (l *Logger) WithPipeline(name string) *Logger {
	return l.withAttr(slog.String("pipeline", name))
}

// WithTask returns a child Logger tagged with a task name.
func (l *Logger) WithTask(name string) *Logger {
	return l.withAttr(slog.String("task", name))
}

// With returns a new Logger with arbitrary key-value attributes.
// Keys and values are provided as alternating arguments.
func (l *Logger) With(args ...any) *Logger {
	if len(args) == 0 {
		return l
	}

	child := l.clone(len(args) / 2)
	for i := 0; i < len(args)-1; i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		child.attrs = append(child.attrs, slog.Any(key, args[i+1]))
	}
	return child
}

func (l *Logger) withAttr(attr slog.Attr) *Logger {
	child := l.clone(1)
	child.attrs = append(child.attrs, attr)
	return child
}

func (l *Logger) clone(extra int) *Logger {
	attrs := make([]slog.Attr, len(l.attrs), len(l.attrs)+extra)
	copy(attrs, l.attrs)
	return &Logger{
		logger: l.logger,
		closer: l.closer,
		mu:     l.mu,
		attrs:  attrs,
	}
}

// Debug logs a message at DEBUG level with optional key-value pairs.
func (l *Logger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, msg, args...)
}

// Info logs a message at INFO level with optional key-value pairs.
func (l *Logger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, msg, args...)
}

// Warn logs a message at WARN level with optional key-value pairs.
func (l *Logger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, msg, args...)
}

// Error logs a message at ERROR level with optional key-value pairs.
func (l *Logger) Error(msg string, args ...any) {
	l.log(slog.LevelError, msg, args...)
}

func (l *Logger) log(level slog.Level, msg string, args ...any) {
	allArgs := make([]any, 0, len(l.attrs)*2+len(args))
	for _, attr := range l.attrs {
		allArgs = append(allArgs, attr.Key, attr.Value.Any())
	}
	allArgs = append(allArgs, args...)

	l.logger.Log(context.Background(), level, msg, allArgs...)
}

// Close closes the underlying log file, if any. Loggers writing to stderr
// ignore it. Closing any child closes the shared file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closer == nil {
		return nil
	}
	if err := l.closer.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	l.closer = nil
	return nil
}

// NopLogger returns a Logger that discards all log output.
func NopLogger() *Logger {
	return NewWithWriter(io.Discard, LevelError, nil)
}

// ParseLevel normalizes a user-provided level string.
// Returns LevelInfo if the level string is not recognized.
func ParseLevel(level string) string {
	switch strings.ToUpper(level) {
	case LevelDebug:
		return LevelDebug
	case LevelWarn:
		return LevelWarn
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

// ValidLevels returns the list of valid log level strings.
func ValidLevels() []string {
	return []string{LevelDebug, LevelInfo, LevelWarn, LevelError}
}
