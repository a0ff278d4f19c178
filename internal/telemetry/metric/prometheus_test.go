package metric

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.registry == nil {
		t.Error("registry field is nil")
	}
	if r.LinesTotal == nil || r.Interrupts == nil || r.SourceErrors == nil || r.HistoryFailures == nil {
		t.Error("shell metrics should be initialized")
	}
	if r.CommandsTotal == nil || r.CommandErrors == nil || r.CommandDuration == nil {
		t.Error("engine metrics should be initialized")
	}
}

func TestRegistry_Independent(t *testing.T) {
	r1 := NewRegistry()
	r2 := NewRegistry()

	r1.Interrupts.Inc()

	if got := testutil.ToFloat64(r2.Interrupts); got != 0 {
		t.Errorf("second registry interrupts = %v, want 0", got)
	}
}

func TestRegistry_Snapshot(t *testing.T) {
	r := NewRegistry()
	r.LinesTotal.WithLabelValues(OutcomeAccepted).Add(2)
	r.LinesTotal.WithLabelValues(OutcomeRejected).Inc()
	r.CommandsTotal.WithLabelValues("put").Inc()
	r.CommandDuration.WithLabelValues("put").Observe(0.001)

	samples, err := r.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	got := make(map[string]float64)
	for i, s := range samples {
		got[s.Name] = s.Value
		if i > 0 && samples[i-1].Name > s.Name {
			t.Errorf("samples not sorted: %q before %q", samples[i-1].Name, s.Name)
		}
	}

	want := map[string]float64{
		`lsmdb_shell_lines_total{outcome="accepted"}`:                2,
		`lsmdb_shell_lines_total{outcome="rejected"}`:                1,
		`lsmdb_engine_commands_total{command="put"}`:                 1,
		`lsmdb_engine_command_duration_seconds{command="put"}_count`: 1,
		`lsmdb_shell_interrupts_total`:                               0,
	}
	for name, v := range want {
		if got[name] != v {
			t.Errorf("sample %s = %v, want %v (all: %v)", name, got[name], v, got)
		}
	}
}

func TestCollector(t *testing.T) {
	value := 1.0
	c := NewCollector("engine", map[string]string{
		"keys":      "Number of live keys",
		"lsm_bytes": "LSM tree size in bytes",
	}, func() map[string]float64 {
		return map[string]float64{"keys": value, "lsm_bytes": 4096}
	})

	if n := testutil.CollectAndCount(c); n != 2 {
		t.Errorf("CollectAndCount = %d, want 2", n)
	}

	expected := `
# HELP lsmdb_engine_keys Number of live keys
# TYPE lsmdb_engine_keys gauge
lsmdb_engine_keys 3
`
	value = 3
	if err := testutil.CollectAndCompare(c, strings.NewReader(expected), "lsmdb_engine_keys"); err != nil {
		t.Errorf("CollectAndCompare: %v", err)
	}
}

func TestCollector_MissingStat(t *testing.T) {
	c := NewCollector("engine", map[string]string{"keys": "Number of live keys"},
		func() map[string]float64 { return nil })

	if n := testutil.CollectAndCount(c); n != 0 {
		t.Errorf("CollectAndCount = %d, want 0", n)
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	c := NewCollector("engine", map[string]string{"keys": "Number of live keys"},
		func() map[string]float64 { return map[string]float64{"keys": 7} })

	if err := r.Register(c); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	// Duplicate registration fails.
	if err := r.Register(c); err == nil {
		t.Error("duplicate Register should fail")
	}

	samples, err := r.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	found := false
	for _, s := range samples {
		if s.Name == "lsmdb_engine_keys" && s.Value == 7 {
			found = true
		}
	}
	if !found {
		t.Errorf("collector sample missing from %v", samples)
	}
}
