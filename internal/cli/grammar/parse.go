// Package grammar implements the lsmdb shell command language.
package grammar

import (
	"os"
	"sort"
	"strconv"
	"strings"
)

// rule describes one keyword of the command language.
type rule struct {
	name  string
	alias string
	// arity is the required token count, keyword included.
	arity int
	build func(name string, args []string) (Command, error)
}

var rules = []rule{
	{name: "put", alias: "p", arity: 3, build: buildPut},
	{name: "get", alias: "g", arity: 2, build: buildGet},
	{name: "range", alias: "r", arity: 3, build: buildRange},
	{name: "delete", alias: "d", arity: 2, build: buildDelete},
	{name: "load", alias: "l", arity: 2, build: buildLoad},
	{name: "print", alias: "s", arity: 1, build: func(string, []string) (Command, error) { return PrintStats{}, nil }},
	{name: "quit", alias: "q", arity: 1, build: func(string, []string) (Command, error) { return Quit{}, nil }},
	{name: "help", alias: "h", arity: 1, build: func(string, []string) (Command, error) { return Help{}, nil }},
}

// keywords maps every long form and alias to its rule.
var keywords = func() map[string]*rule {
	m := make(map[string]*rule, 2*len(rules))
	for i := range rules {
		m[rules[i].name] = &rules[i]
		m[rules[i].alias] = &rules[i]
	}
	return m
}()

// Tokenize splits a line on whitespace.
// A blank line yields an empty token stream.
func Tokenize(line string) []string {
	return strings.Fields(line)
}

// ParseLine tokenizes and parses a single input line.
func ParseLine(line string) (Command, error) {
	return Parse(Tokenize(line))
}

// Parse builds a Command from a token stream.
//
// The first token selects the keyword (case-sensitive). Any arity mismatch,
// invalid argument or unknown keyword rejects the whole stream; no partially
// validated command is ever returned.
func Parse(tokens []string) (Command, error) {
	if len(tokens) == 0 {
		return nil, reject("", "", ErrEmpty)
	}

	r, ok := keywords[tokens[0]]
	if !ok {
		return nil, reject(tokens[0], "", ErrUnknownKeyword)
	}
	if len(tokens) != r.arity {
		return nil, reject(r.name, "", ErrArity)
	}

	return r.build(r.name, tokens[1:])
}

// Keywords returns every recognized keyword and alias in sorted order.
func Keywords() []string {
	out := make([]string, 0, len(keywords))
	for k := range keywords {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func buildPut(name string, args []string) (Command, error) {
	key, err := parseKey(name, args[0])
	if err != nil {
		return nil, err
	}
	value, err := parseValue(name, args[1])
	if err != nil {
		return nil, err
	}
	return Put{Key: key, Value: value}, nil
}

func buildGet(name string, args []string) (Command, error) {
	key, err := parseKey(name, args[0])
	if err != nil {
		return nil, err
	}
	return Get{Key: key}, nil
}

func buildRange(name string, args []string) (Command, error) {
	start, err := parseKey(name, args[0])
	if err != nil {
		return nil, err
	}
	end, err := parseKey(name, args[1])
	if err != nil {
		return nil, err
	}
	return Range{Start: start, End: end}, nil
}

func buildDelete(name string, args []string) (Command, error) {
	key, err := parseKey(name, args[0])
	if err != nil {
		return nil, err
	}
	return Delete{Key: key}, nil
}

func buildLoad(name string, args []string) (Command, error) {
	info, err := os.Stat(args[0])
	if err != nil || !info.Mode().IsRegular() {
		return nil, reject(name, args[0], ErrNotRegularFile)
	}
	return Load{Path: args[0]}, nil
}

func parseKey(name, tok string) (Key, error) {
	k, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, reject(name, tok, ErrInvalidArgument)
	}
	return k, nil
}

func parseValue(name, tok string) (Value, error) {
	v, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, reject(name, tok, ErrInvalidArgument)
	}
	return v, nil
}
