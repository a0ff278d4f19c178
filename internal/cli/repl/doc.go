// Package repl provides the interactive shell session for lsmdb.
//
// This package implements the read-validate-dispatch loop:
//
//   - repl.go: Session state machine and command dispatch
//   - linesource.go: LineSource abstraction over terminal input
//   - terminal.go: Raw-mode terminal line editor
//   - reader.go: Line source for pipes and redirected files
//   - history.go: Append-only input history persistence
//   - completer.go: Tab completion for keywords
//
// A Session reads one line at a time. Blank lines are dropped, every
// other line is appended to the history file before it is parsed, and
// accepted commands are handed to the storage engine synchronously.
// An interrupt prints a hint and returns to the prompt; end-of-input
// behaves like quit.
package repl
