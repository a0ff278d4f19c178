// Package logger provides structured logging for lsmdb.
//
// It wraps the standard library log/slog behind a small interface so
// components can be handed a logger without depending on a handler.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the application logger interface.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	// WithContext returns a logger whose records carry ctx.
	// A session ID stored in ctx is added to every record.
	WithContext(ctx context.Context) Logger
}

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// Format is the output format (json, text).
	Format string
	// Output is the output writer (defaults to os.Stderr).
	Output io.Writer
	// AddSource adds source file information to log entries.
	AddSource bool
}

// DefaultConfig returns the configuration used before the shell reads
// its own. Only warnings and errors reach stderr.
func DefaultConfig() Config {
	return Config{
		Level:  "warn",
		Format: "text",
		Output: os.Stderr,
	}
}

// level is shared by every logger so SetLevel applies everywhere.
var level = new(slog.LevelVar)

type slogLogger struct {
	logger *slog.Logger
	ctx    context.Context
}

// New creates a logger and sets the shared level from cfg.
func New(cfg Config) (Logger, error) {
	level.Set(parseLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	return newLogger(h), nil
}

// Discard returns a logger that drops every record.
func Discard() Logger {
	return newLogger(slog.NewTextHandler(io.Discard, nil))
}

func newLogger(h slog.Handler) *slogLogger {
	return &slogLogger{
		logger: slog.New(sessionHandler{h}),
		ctx:    context.Background(),
	}
}

// SetLevel changes the level of every logger.
// The config watcher calls this when log.level changes on disk.
func SetLevel(name string) {
	level.Set(parseLevel(name))
}

// GetLevel returns the current level name.
func GetLevel() string {
	switch l := level.Level(); {
	case l <= slog.LevelDebug:
		return "debug"
	case l <= slog.LevelInfo:
		return "info"
	case l <= slog.LevelWarn:
		return "warn"
	default:
		return "error"
	}
}

// ValidLevel reports whether name is a known log level.
func ValidLevel(name string) bool {
	switch strings.ToLower(name) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// parseLevel maps a level name to slog. Unknown names mean info.
func parseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *slogLogger) Debug(msg string, args ...any) {
	l.logger.DebugContext(l.ctx, msg, args...)
}

func (l *slogLogger) Info(msg string, args ...any) {
	l.logger.InfoContext(l.ctx, msg, args...)
}

func (l *slogLogger) Warn(msg string, args ...any) {
	l.logger.WarnContext(l.ctx, msg, args...)
}

func (l *slogLogger) Error(msg string, args ...any) {
	l.logger.ErrorContext(l.ctx, msg, args...)
}

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{logger: l.logger.With(args...), ctx: l.ctx}
}

func (l *slogLogger) WithContext(ctx context.Context) Logger {
	return &slogLogger{logger: l.logger, ctx: ctx}
}

// sessionHandler adds the session ID found in the record context.
type sessionHandler struct {
	slog.Handler
}

func (h sessionHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := SessionIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String("session_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h sessionHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return sessionHandler{h.Handler.WithAttrs(attrs)}
}

func (h sessionHandler) WithGroup(name string) slog.Handler {
	return sessionHandler{h.Handler.WithGroup(name)}
}

var defaultLogger atomic.Pointer[slogLogger]

func init() {
	l, _ := New(DefaultConfig())
	defaultLogger.Store(l.(*slogLogger))
}

// SetDefault replaces the logger returned by Default.
func SetDefault(l Logger) {
	if sl, ok := l.(*slogLogger); ok {
		defaultLogger.Store(sl)
	}
}

// Default returns the process-wide logger.
func Default() Logger {
	return defaultLogger.Load()
}
