// Package repl provides the interactive shell session for lsmdb.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// History is the append-only log of input lines.
//
// Entries are never deduplicated or truncated. Each Append is written to
// the backing file before it returns.
type History struct {
	entries []string
	file    string
}

// NewHistory creates a history backed by file.
// An empty file path keeps the history in memory only.
func NewHistory(file string) *History {
	return &History{
		entries: make([]string, 0),
		file:    file,
	}
}

// File returns the backing file path.
func (h *History) File() string {
	return h.file
}

// Load reads existing entries from the backing file.
// A missing file is not an error.
func (h *History) Load() error {
	if h.file == "" {
		return nil
	}

	file, err := os.Open(h.file)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer file.Close()

	r := bufio.NewReader(file)
	for {
		line, err := r.ReadString('\n')
		if line = strings.TrimRight(line, "\r\n"); line != "" {
			h.entries = append(h.entries, line)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read history: %w", err)
		}
	}
}

// Append records line and persists it.
// The entry is kept in memory even when persisting fails.
func (h *History) Append(line string) error {
	h.entries = append(h.entries, line)
	if h.file == "" {
		return nil
	}

	if dir := filepath.Dir(h.file); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create history dir: %w", err)
		}
	}

	file, err := os.OpenFile(h.file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	if _, err := file.WriteString(line + "\n"); err != nil {
		file.Close()
		return fmt.Errorf("write history: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close history: %w", err)
	}
	return nil
}

// Entries returns a copy of all entries, oldest first.
func (h *History) Entries() []string {
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Get returns the entry at index (0 = most recent).
func (h *History) Get(index int) string {
	if index < 0 || index >= len(h.entries) {
		return ""
	}
	return h.entries[len(h.entries)-1-index]
}
