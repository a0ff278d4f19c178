// Package output provides output formatting for the lsmdb shell.
package output

import (
	"io"
	"strings"
)

// Format represents the output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formatter formats data for output.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// ParseFormat normalizes s to a known format.
// Unknown formats fall back to a table.
func ParseFormat(s string) Format {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatYAML:
		return f
	default:
		return FormatTable
	}
}

// NewFormatter creates a formatter for the given format.
func NewFormatter(format Format) Formatter {
	switch ParseFormat(string(format)) {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TableFormatter{}
	}
}
