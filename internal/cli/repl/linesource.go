// Package repl provides the interactive shell session for lsmdb.
package repl

import "errors"

// ErrInterrupted is returned by a LineSource when the operator cancels
// the line being edited.
var ErrInterrupted = errors.New("interrupted")

// LineSource supplies input lines to a Session.
//
// ReadLine returns ErrInterrupted on operator cancel and io.EOF at end of
// input. Any other error is treated as a transient read failure.
type LineSource interface {
	ReadLine(prompt string) (string, error)
	Close() error
}
