// Package grammar implements the lsmdb shell command language.
package grammar

import "fmt"

// Key is the numeric key type accepted by the storage engine.
type Key = int64

// Value is the numeric value type accepted by the storage engine.
type Value = int64

// Command is a validated operator request.
//
// The set of variants is closed: only types in this package implement it.
type Command interface {
	// Name returns the long keyword of the command.
	Name() string
	// String returns the canonical text form of the command.
	String() string

	isCommand()
}

// Put inserts a key-value pair. An existing value is replaced.
type Put struct {
	Key   Key
	Value Value
}

// Get fetches the value associated with Key.
type Get struct {
	Key Key
}

// Range fetches values with Start <= key < End.
type Range struct {
	Start Key
	End   Key
}

// Delete removes the pair associated with Key.
type Delete struct {
	Key Key
}

// Load inserts the commands stored in the batch file at Path.
type Load struct {
	Path string
}

// PrintStats prints the current state of the database.
type PrintStats struct{}

// Quit terminates the session.
type Quit struct{}

// Help prints the usage table.
type Help struct{}

func (Put) isCommand()        {}
func (Get) isCommand()        {}
func (Range) isCommand()      {}
func (Delete) isCommand()     {}
func (Load) isCommand()       {}
func (PrintStats) isCommand() {}
func (Quit) isCommand()       {}
func (Help) isCommand()       {}

func (Put) Name() string        { return "put" }
func (Get) Name() string        { return "get" }
func (Range) Name() string      { return "range" }
func (Delete) Name() string     { return "delete" }
func (Load) Name() string       { return "load" }
func (PrintStats) Name() string { return "print" }
func (Quit) Name() string       { return "quit" }
func (Help) Name() string       { return "help" }

func (c Put) String() string    { return fmt.Sprintf("put %d %d", c.Key, c.Value) }
func (c Get) String() string    { return fmt.Sprintf("get %d", c.Key) }
func (c Range) String() string  { return fmt.Sprintf("range %d %d", c.Start, c.End) }
func (c Delete) String() string { return fmt.Sprintf("delete %d", c.Key) }
func (c Load) String() string   { return "load " + c.Path }
func (PrintStats) String() string {
	return "print"
}
func (Quit) String() string { return "quit" }
func (Help) String() string { return "help" }
