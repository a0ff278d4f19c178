package repl

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/niebayes/LSM-Tree/internal/cli/grammar"
	"github.com/niebayes/LSM-Tree/internal/telemetry/logger"
	"github.com/niebayes/LSM-Tree/internal/telemetry/metric"
)

// step is one scripted ReadLine result.
type step struct {
	line string
	err  error
}

// scriptSource replays steps and reports io.EOF once they run out.
type scriptSource struct {
	steps   []step
	prompts int
	closed  bool
}

func lines(ls ...string) *scriptSource {
	s := &scriptSource{}
	for _, l := range ls {
		s.steps = append(s.steps, step{line: l})
	}
	return s
}

func (s *scriptSource) ReadLine(prompt string) (string, error) {
	s.prompts++
	if len(s.steps) == 0 {
		return "", io.EOF
	}
	st := s.steps[0]
	s.steps = s.steps[1:]
	return st.line, st.err
}

func (s *scriptSource) Close() error {
	s.closed = true
	return nil
}

// recorder captures forwarded commands.
type recorder struct {
	cmds []grammar.Command
	ids  []string
}

func (r *recorder) Handle(ctx context.Context, cmd grammar.Command) {
	r.cmds = append(r.cmds, cmd)
	r.ids = append(r.ids, logger.SessionIDFromContext(ctx))
}

func newTestSession(t *testing.T, src LineSource) (*Session, *bytes.Buffer, *metric.Registry, string) {
	t.Helper()
	file := filepath.Join(t.TempDir(), ".cmd_history")
	var out bytes.Buffer
	m := metric.NewRegistry()
	s := New(src,
		WithHistory(NewHistory(file)),
		WithOutput(&out),
		WithLogger(logger.Discard()),
		WithMetrics(m),
	)
	return s, &out, m, file
}

func readHistory(t *testing.T, file string) []string {
	t.Helper()
	data, err := os.ReadFile(file)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestNew(t *testing.T) {
	s := New(lines())
	if s.prompt != DefaultPrompt {
		t.Errorf("prompt = %q, want %q", s.prompt, DefaultPrompt)
	}
	if s.History() == nil {
		t.Error("history should be initialized")
	}
	if len(s.ID()) != 26 {
		t.Errorf("ID() = %q, want a ULID", s.ID())
	}
	if New(lines()).ID() == s.ID() {
		t.Error("sessions should have distinct IDs")
	}
}

func TestSession_Scenario(t *testing.T) {
	src := lines("put 3 7", "get 3", "xyz", "quit")
	s, out, m, file := newTestSession(t, src)
	rec := &recorder{}

	if err := s.Run(context.Background(), rec); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []grammar.Command{grammar.Put{Key: 3, Value: 7}, grammar.Get{Key: 3}}
	if !reflect.DeepEqual(rec.cmds, want) {
		t.Errorf("forwarded = %v, want %v", rec.cmds, want)
	}
	if got := strings.Count(out.String(), RejectedMessage); got != 1 {
		t.Errorf("rejection printed %d times, want 1", got)
	}
	if got := readHistory(t, file); !reflect.DeepEqual(got, []string{"put 3 7", "get 3", "xyz", "quit"}) {
		t.Errorf("history file = %v", got)
	}
	if got := testutil.ToFloat64(m.LinesTotal.WithLabelValues(metric.OutcomeAccepted)); got != 3 {
		t.Errorf("accepted lines = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.LinesTotal.WithLabelValues(metric.OutcomeRejected)); got != 1 {
		t.Errorf("rejected lines = %v, want 1", got)
	}
	for _, id := range rec.ids {
		if id != s.ID() {
			t.Errorf("handler saw session id %q, want %q", id, s.ID())
		}
	}
}

func TestSession_HelpAtStartup(t *testing.T) {
	s, out, _, _ := newTestSession(t, lines("q"))
	if err := s.Run(context.Background(), &recorder{}); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "  Usage:\n") {
		t.Errorf("output should start with usage table: %q", out.String())
	}
}

func TestSession_HelpCommand(t *testing.T) {
	s, out, _, _ := newTestSession(t, lines("h", "help", "quit"))
	rec := &recorder{}
	if err := s.Run(context.Background(), rec); err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(out.String(), "  Usage:"); got != 3 {
		t.Errorf("usage printed %d times, want 3", got)
	}
	if len(rec.cmds) != 0 {
		t.Errorf("help must not reach the engine: %v", rec.cmds)
	}
}

func TestSession_BlankLines(t *testing.T) {
	s, out, _, file := newTestSession(t, lines("", "   ", "\t", "get 1"))
	cmd := s.Next(context.Background())

	if cmd != (grammar.Get{Key: 1}) {
		t.Errorf("Next() = %v, want get 1", cmd)
	}
	if got := readHistory(t, file); !reflect.DeepEqual(got, []string{"get 1"}) {
		t.Errorf("history = %v, blank lines must not be recorded", got)
	}
	if strings.Contains(out.String(), RejectedMessage) {
		t.Error("blank lines must not be rejected")
	}
}

func TestSession_EOFIsQuit(t *testing.T) {
	s, _, _, file := newTestSession(t, lines("put 1 2"))
	rec := &recorder{}

	if err := s.Run(context.Background(), rec); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(rec.cmds) != 1 {
		t.Errorf("forwarded %d commands, want 1", len(rec.cmds))
	}
	if got := readHistory(t, file); !reflect.DeepEqual(got, []string{"put 1 2"}) {
		t.Errorf("history = %v", got)
	}
	if cmd := s.Next(context.Background()); cmd != (grammar.Quit{}) {
		t.Errorf("Next() after EOF = %v, want quit", cmd)
	}
}

func TestSession_Interrupt(t *testing.T) {
	src := &scriptSource{steps: []step{
		{err: ErrInterrupted},
		{line: "get 2"},
	}}
	s, out, m, file := newTestSession(t, src)

	cmd := s.Next(context.Background())
	if cmd != (grammar.Get{Key: 2}) {
		t.Errorf("Next() = %v, want get 2", cmd)
	}
	if !strings.Contains(out.String(), InterruptMessage) {
		t.Errorf("output = %q, want interrupt hint", out.String())
	}
	if got := readHistory(t, file); !reflect.DeepEqual(got, []string{"get 2"}) {
		t.Errorf("history = %v, interrupt must not be recorded", got)
	}
	if got := testutil.ToFloat64(m.Interrupts); got != 1 {
		t.Errorf("interrupts = %v, want 1", got)
	}
}

func TestSession_SourceError(t *testing.T) {
	src := &scriptSource{steps: []step{
		{err: errors.New("device hiccup")},
		{line: "s"},
	}}
	s, _, m, _ := newTestSession(t, src)

	if cmd := s.Next(context.Background()); cmd != (grammar.PrintStats{}) {
		t.Errorf("Next() = %v, want print", cmd)
	}
	if got := testutil.ToFloat64(m.SourceErrors); got != 1 {
		t.Errorf("source errors = %v, want 1", got)
	}
}

func TestSession_SourceErrorsRecover(t *testing.T) {
	const failures = 250
	src := &scriptSource{}
	for i := 0; i < failures; i++ {
		src.steps = append(src.steps, step{err: errors.New("broken")})
	}
	src.steps = append(src.steps, step{line: "get 1"})
	s, _, m, _ := newTestSession(t, src)

	var waits []time.Duration
	s.wait = func(_ context.Context, d time.Duration) { waits = append(waits, d) }

	if cmd := s.Next(context.Background()); cmd != (grammar.Get{Key: 1}) {
		t.Fatalf("Next() = %v, want get 1", cmd)
	}
	if got := testutil.ToFloat64(m.SourceErrors); got != failures {
		t.Errorf("source errors = %v, want %d", got, failures)
	}
	if len(waits) != failures {
		t.Fatalf("waited %d times, want %d", len(waits), failures)
	}
	for i, d := range DefaultRetryBackoff {
		if waits[i] != d {
			t.Errorf("wait %d = %v, want %v", i, waits[i], d)
		}
	}
	if last := waits[failures-1]; last != time.Second {
		t.Errorf("last wait = %v, want %v", last, time.Second)
	}
}

func TestSession_SourceErrorBackoffReset(t *testing.T) {
	src := &scriptSource{steps: []step{
		{err: errors.New("broken")},
		{err: errors.New("broken")},
		{line: "get 1"},
		{err: errors.New("broken")},
		{line: "get 2"},
	}}
	file := filepath.Join(t.TempDir(), ".cmd_history")
	s := New(src,
		WithHistory(NewHistory(file)),
		WithOutput(io.Discard),
		WithLogger(logger.Discard()),
		WithRetryBackoff(time.Millisecond, time.Hour),
	)

	var waits []time.Duration
	s.wait = func(_ context.Context, d time.Duration) { waits = append(waits, d) }

	s.Next(context.Background())
	if cmd := s.Next(context.Background()); cmd != (grammar.Get{Key: 2}) {
		t.Fatalf("Next() = %v, want get 2", cmd)
	}
	want := []time.Duration{time.Millisecond, time.Hour, time.Millisecond}
	if !reflect.DeepEqual(waits, want) {
		t.Errorf("waits = %v, want %v", waits, want)
	}
}

func TestSession_SourceErrorCanceledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &scriptSource{steps: []step{
		{err: errors.New("broken")},
		{line: "get 1"},
	}}
	s := New(src,
		WithOutput(io.Discard),
		WithLogger(logger.Discard()),
		WithRetryBackoff(time.Hour),
	)

	done := make(chan grammar.Command, 1)
	go func() { done <- s.Next(ctx) }()
	cancel()

	select {
	case cmd := <-done:
		if cmd != (grammar.Quit{}) {
			t.Errorf("Next() = %v, want quit", cmd)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Next did not return after cancellation")
	}
}

func TestSession_HistoryFailure(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	m := metric.NewRegistry()
	s := New(lines("get 1"),
		WithHistory(NewHistory(dir)),
		WithOutput(&out),
		WithLogger(logger.Discard()),
		WithMetrics(m),
	)

	if cmd := s.Next(context.Background()); cmd != (grammar.Get{Key: 1}) {
		t.Errorf("Next() = %v, want get 1", cmd)
	}
	if got := testutil.ToFloat64(m.HistoryFailures); got != 1 {
		t.Errorf("history failures = %v, want 1", got)
	}
}

func TestSession_RejectedLoadRecorded(t *testing.T) {
	s, out, _, file := newTestSession(t, lines("load missingfile.txt", "delete 4"))
	cmd := s.Next(context.Background())

	if cmd != (grammar.Delete{Key: 4}) {
		t.Errorf("Next() = %v, want delete 4", cmd)
	}
	if !strings.Contains(out.String(), RejectedMessage) {
		t.Error("missing load file should be rejected")
	}
	if got := readHistory(t, file); len(got) != 2 {
		t.Errorf("history = %v, want both lines", got)
	}
}

func TestSession_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := lines("put 1 2")
	s, _, _, _ := newTestSession(t, src)
	rec := &recorder{}

	if err := s.Run(ctx, rec); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if len(rec.cmds) != 0 || src.prompts != 0 {
		t.Errorf("canceled session should not read or dispatch")
	}
}

func TestSession_Prompt(t *testing.T) {
	var out bytes.Buffer
	src := NewReaderSource(strings.NewReader("quit\n"), &out)
	s := New(src, WithOutput(&out), WithLogger(logger.Discard()), WithPrompt("db> "))

	if err := s.Run(context.Background(), &recorder{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "db> ") {
		t.Errorf("output = %q, want custom prompt", out.String())
	}
}
