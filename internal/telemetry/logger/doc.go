// Package logger provides structured logging for lsmdb.
//
// This package wraps log/slog:
//
//   - logger.go: Logger interface, configuration and the default logger
//   - context.go: Context-aware logging with session IDs
//
// The shell writes its own output to stdout, so log records go to
// stderr in text format unless configured otherwise.
package logger
