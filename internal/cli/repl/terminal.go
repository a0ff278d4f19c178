// Package repl provides the interactive shell session for lsmdb.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/term"
)

// Control bytes seen in raw mode.
const (
	keyInterrupt = 0x03
	keyEOF       = 0x04
	keyBackspace = 0x08
	keyTab       = 0x09
	keyEscape    = 0x1b
	keyDelete    = 0x7f
)

// TerminalSource is a LineSource that edits lines on a raw-mode terminal.
//
// Ctrl-C abandons the current line with ErrInterrupted, Ctrl-D on an empty
// line signals io.EOF, the arrow keys walk the history and Tab completes
// keywords.
type TerminalSource struct {
	fd     int
	editor *editor

	mu    sync.Mutex
	state *term.State // saved cooked mode while a line is edited
}

// NewTerminalSource creates a line source over the terminal behind in.
// history and completer may be nil.
func NewTerminalSource(in *os.File, out io.Writer, history *History, completer *Completer) *TerminalSource {
	return &TerminalSource{
		fd: int(in.Fd()),
		editor: &editor{
			reader:    bufio.NewReader(in),
			output:    out,
			history:   history,
			completer: completer,
		},
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ReadLine implements LineSource.
// The terminal is in raw mode only while a line is being edited.
func (t *TerminalSource) ReadLine(prompt string) (string, error) {
	state, err := term.MakeRaw(t.fd)
	if err != nil {
		return "", fmt.Errorf("enter raw mode: %w", err)
	}
	t.mu.Lock()
	t.state = state
	t.mu.Unlock()
	defer t.restore()

	return t.editor.readLine(prompt)
}

// Close implements LineSource.
// It leaves raw mode if a line is being edited.
func (t *TerminalSource) Close() error {
	return t.restore()
}

func (t *TerminalSource) restore() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == nil {
		return nil
	}
	err := term.Restore(t.fd, t.state)
	t.state = nil
	return err
}

// editor implements line editing over a byte stream.
type editor struct {
	reader    *bufio.Reader
	output    io.Writer
	history   *History
	completer *Completer

	// historyIndex counts back from the newest entry; -1 is the live line.
	historyIndex   int
	historyScratch string
}

func (e *editor) readLine(prompt string) (string, error) {
	buf := make([]byte, 0, 64)
	e.historyIndex = -1
	e.historyScratch = ""
	e.redraw(prompt, buf)

	for {
		b, err := e.reader.ReadByte()
		if err != nil {
			if err == io.EOF && len(buf) > 0 {
				fmt.Fprint(e.output, "\r\n")
				return string(buf), nil
			}
			return "", err
		}

		switch b {
		case '\r', '\n':
			fmt.Fprint(e.output, "\r\n")
			return string(buf), nil
		case keyInterrupt:
			fmt.Fprint(e.output, "^C\r\n")
			return "", ErrInterrupted
		case keyEOF:
			if len(buf) == 0 {
				fmt.Fprint(e.output, "\r\n")
				return "", io.EOF
			}
		case keyDelete, keyBackspace:
			if len(buf) > 0 {
				_, size := utf8.DecodeLastRune(buf)
				buf = buf[:len(buf)-size]
				e.redraw(prompt, buf)
			}
		case keyTab:
			buf = e.complete(prompt, buf)
		case keyEscape:
			buf = e.escape(prompt, buf)
		default:
			if b >= 32 {
				buf = append(buf, b)
				e.redraw(prompt, buf)
			}
		}
	}
}

// escape consumes one escape sequence. Up and down arrows walk the
// history; every other sequence is dropped whole.
func (e *editor) escape(prompt string, buf []byte) []byte {
	final, ok := e.readSequence()
	if !ok || e.history == nil {
		return buf
	}

	n := e.history.Len()
	switch final {
	case 'A':
		if n == 0 || e.historyIndex == n-1 {
			return buf
		}
		if e.historyIndex == -1 {
			e.historyScratch = string(buf)
		}
		e.historyIndex++
		buf = []byte(e.history.Get(e.historyIndex))
	case 'B':
		if e.historyIndex == -1 {
			return buf
		}
		e.historyIndex--
		if e.historyIndex == -1 {
			buf = []byte(e.historyScratch)
			e.historyScratch = ""
		} else {
			buf = []byte(e.history.Get(e.historyIndex))
		}
	default:
		return buf
	}

	e.redraw(prompt, buf)
	return buf
}

// readSequence reads the rest of a sequence after ESC and returns its
// final byte. ok is false for sequences with parameters, such as
// ESC [ 3 ~, and for anything that is not CSI or SS3.
func (e *editor) readSequence() (final byte, ok bool) {
	intro, err := e.reader.ReadByte()
	if err != nil {
		return 0, false
	}

	switch intro {
	case 'O':
		b, err := e.reader.ReadByte()
		return b, err == nil
	case '[':
		plain := true
		for {
			b, err := e.reader.ReadByte()
			if err != nil {
				return 0, false
			}
			// Parameter and intermediate bytes precede the final byte.
			if b >= 0x20 && b <= 0x3f {
				plain = false
				continue
			}
			return b, plain && b >= 0x40 && b <= 0x7e
		}
	default:
		return 0, false
	}
}

// complete extends the keyword being typed. Arguments are not completed.
func (e *editor) complete(prompt string, buf []byte) []byte {
	if e.completer == nil || strings.ContainsAny(string(buf), " \t") {
		return buf
	}

	matches := e.completer.Complete(string(buf))
	switch len(matches) {
	case 0:
		return buf
	case 1:
		buf = []byte(matches[0] + " ")
	default:
		if prefix := CommonPrefix(matches); len(prefix) > len(buf) {
			buf = []byte(prefix)
		} else {
			fmt.Fprintf(e.output, "\r\n%s\r\n", strings.Join(matches, "  "))
		}
	}

	e.redraw(prompt, buf)
	return buf
}

func (e *editor) redraw(prompt string, buf []byte) {
	fmt.Fprintf(e.output, "\r\x1b[2K%s%s", prompt, buf)
}
