// Package repl provides the interactive shell session for lsmdb.
package repl

import (
	"strings"

	"github.com/niebayes/LSM-Tree/internal/cli/grammar"
)

// Completer provides keyword completion for the terminal line source.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer over the long keyword forms.
// One-letter aliases are left out; they are already complete.
func NewCompleter() *Completer {
	c := &Completer{}
	for _, k := range grammar.Keywords() {
		if len(k) > 1 {
			c.commands = append(c.commands, k)
		}
	}
	return c
}

// Complete returns completion suggestions for the given prefix.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}

// CommonPrefix returns the longest prefix shared by all candidates.
func CommonPrefix(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	prefix := candidates[0]
	for _, c := range candidates[1:] {
		for !strings.HasPrefix(c, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	return prefix
}
