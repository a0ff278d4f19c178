// Package grammar implements the lsmdb shell command language.
//
// This package turns one input line into a typed command:
//
//   - command.go: Command sum type and its variants
//   - parse.go: Tokenization and keyword dispatch
//   - errors.go: Rejection errors
//
// Every keyword has a long form and a one-letter alias:
//
//	p | put <key> <value>
//	g | get <key>
//	r | range <start_key> <end_key>
//	d | delete <key>
//	l | load <command_batch_file>
//	s | print
//	q | quit
//	h | help
//
// A line is either parsed into a fully validated Command or rejected.
// Callers that only need the uniform outcome check errors.Is(err, ErrRejected);
// the wrapped reason is available for diagnostics.
package grammar
