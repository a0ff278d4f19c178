// Package repl provides the interactive shell session for lsmdb.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/niebayes/LSM-Tree/internal/cli/grammar"
	"github.com/niebayes/LSM-Tree/internal/cli/help"
	"github.com/niebayes/LSM-Tree/internal/telemetry/logger"
	"github.com/niebayes/LSM-Tree/internal/telemetry/metric"
)

// DefaultPrompt is shown before every line.
const DefaultPrompt = "(lsm_db) "

// Messages written to the session output.
const (
	RejectedMessage  = "unrecognized command"
	InterruptMessage = `Hint: type "q" or "quit" to exit`
)

// DefaultRetryBackoff is the delay before re-prompting after consecutive
// line source failures. The last entry repeats.
var DefaultRetryBackoff = []time.Duration{
	0,
	10 * time.Millisecond,
	100 * time.Millisecond,
	time.Second,
}

// Handler executes accepted commands. Quit and Help never reach it.
type Handler interface {
	Handle(ctx context.Context, cmd grammar.Command)
}

// Session is the read-validate-dispatch loop.
type Session struct {
	id      string
	prompt  string
	source  LineSource
	history *History
	output  io.Writer
	base    logger.Logger
	log     logger.Logger
	metrics *metric.Registry
	backoff []time.Duration
	wait    func(ctx context.Context, d time.Duration)
}

// Option configures a Session.
type Option func(*Session)

// WithPrompt sets the prompt text.
func WithPrompt(prompt string) Option {
	return func(s *Session) {
		s.prompt = prompt
	}
}

// WithHistory sets the history log.
func WithHistory(h *History) Option {
	return func(s *Session) {
		s.history = h
	}
}

// WithOutput sets the writer for session messages and help.
func WithOutput(w io.Writer) Option {
	return func(s *Session) {
		s.output = w
	}
}

// WithLogger sets the session logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		s.base = l
	}
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metric.Registry) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithRetryBackoff sets the re-prompt delays used after line source failures.
func WithRetryBackoff(backoff ...time.Duration) Option {
	return func(s *Session) {
		if len(backoff) > 0 {
			s.backoff = append([]time.Duration(nil), backoff...)
		}
	}
}

// New creates a Session reading from src.
func New(src LineSource, opts ...Option) *Session {
	s := &Session{
		id:      ulid.Make().String(),
		prompt:  DefaultPrompt,
		source:  src,
		output:  os.Stdout,
		base:    logger.Default(),
		backoff: DefaultRetryBackoff,
		wait:    sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.history == nil {
		s.history = NewHistory("")
	}
	s.log = s.base.With("session_id", s.id)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// History returns the session history log.
func (s *Session) History() *History {
	return s.history
}

// Next blocks until the operator enters an accepted command.
//
// End of input, or cancellation of ctx, yields grammar.Quit. Interrupts,
// rejected lines and source errors never escape Next; repeated source
// errors only slow the loop down.
func (s *Session) Next(ctx context.Context) grammar.Command {
	failures := 0
	for {
		if ctx.Err() != nil {
			return grammar.Quit{}
		}

		line, err := s.source.ReadLine(s.prompt)
		switch {
		case err == nil:
			failures = 0
		case errors.Is(err, ErrInterrupted):
			s.count(func(m *metric.Registry) { m.Interrupts.Inc() })
			fmt.Fprintln(s.output, InterruptMessage)
			continue
		case errors.Is(err, io.EOF):
			s.log.Debug("end of input")
			return grammar.Quit{}
		default:
			s.count(func(m *metric.Registry) { m.SourceErrors.Inc() })
			s.log.Error("read line failed", "error", err)
			failures++
			s.wait(ctx, s.retryDelay(failures))
			continue
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		if err := s.history.Append(line); err != nil {
			s.count(func(m *metric.Registry) { m.HistoryFailures.Inc() })
			s.log.Warn("failed to save history", "file", s.history.File(), "error", err)
		}

		cmd, err := grammar.ParseLine(line)
		if err != nil {
			s.count(func(m *metric.Registry) { m.LinesTotal.WithLabelValues(metric.OutcomeRejected).Inc() })
			s.log.Debug("line rejected", "line", line, "reason", err)
			fmt.Fprintln(s.output, RejectedMessage)
			continue
		}

		s.count(func(m *metric.Registry) { m.LinesTotal.WithLabelValues(metric.OutcomeAccepted).Inc() })
		return cmd
	}
}

// Run prints the usage table and drives the session until Quit.
// Every command other than Quit and Help is passed to h before the next
// line is read. Run returns ctx.Err() when the loop ended by cancellation.
func (s *Session) Run(ctx context.Context, h Handler) error {
	ctx = logger.WithSessionID(logger.WithLogger(ctx, s.base), s.id)

	if err := help.Render(s.output); err != nil {
		s.log.Warn("failed to print help", "error", err)
	}

	for {
		cmd := s.Next(ctx)

		switch c := cmd.(type) {
		case grammar.Quit:
			s.log.Debug("session terminated")
			return ctx.Err()
		case grammar.Help:
			if err := help.Render(s.output); err != nil {
				s.log.Warn("failed to print help", "error", err)
			}
		case grammar.Put, grammar.Get, grammar.Range, grammar.Delete, grammar.Load, grammar.PrintStats:
			h.Handle(ctx, c)
		default:
			panic(fmt.Sprintf("repl: unhandled command %T", cmd))
		}
	}
}

func (s *Session) retryDelay(failures int) time.Duration {
	i := failures - 1
	if i >= len(s.backoff) {
		i = len(s.backoff) - 1
	}
	return s.backoff[i]
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (s *Session) count(f func(*metric.Registry)) {
	if s.metrics != nil {
		f(s.metrics)
	}
}
