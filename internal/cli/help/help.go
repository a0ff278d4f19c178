// Package help holds the usage table printed by the lsmdb shell.
package help

import (
	"fmt"
	"io"
)

// usageWidth is the width of the usage column.
const usageWidth = 35

// Entry is one row of the usage table.
type Entry struct {
	Usage       string
	Description string
}

var entries = []Entry{
	{"p | put <key> <value>", "insert a key-value pair into the database"},
	{"g | get <key>", "fetch the associated value of the given key"},
	{"r | range <start_key> <end_key>", "fetch values in the key range from start_key to end_key"},
	{"d | delete <key>", "delete the key-value pair associated with the given key"},
	{"l | load <command_batch_file>", "insert a sequence of key-value pairs stored in the file"},
	{"s | print", "print the current state of the database"},
	{"q | quit", "terminate the session"},
	{"h | help", "print this help message"},
}

// Entries returns a copy of the usage table.
func Entries() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Render writes the usage table to w.
func Render(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "  Usage:"); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "\t%-*s%s\n", usageWidth, e.Usage, e.Description); err != nil {
			return err
		}
	}
	return nil
}
