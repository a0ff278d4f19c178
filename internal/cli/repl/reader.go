// Package repl provides the interactive shell session for lsmdb.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ReaderSource reads lines from a plain reader, such as a pipe or a
// redirected file.
type ReaderSource struct {
	reader *bufio.Reader
	output io.Writer
	closer io.Closer
}

// NewReaderSource creates a line source over r. Prompts are written to w
// when w is non-nil.
func NewReaderSource(r io.Reader, w io.Writer) *ReaderSource {
	s := &ReaderSource{
		reader: bufio.NewReader(r),
		output: w,
	}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// ReadLine implements LineSource.
// A final line without a trailing newline is returned before io.EOF.
func (s *ReaderSource) ReadLine(prompt string) (string, error) {
	if s.output != nil && prompt != "" {
		fmt.Fprint(s.output, prompt)
	}

	line, err := s.reader.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Close implements LineSource.
func (s *ReaderSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
