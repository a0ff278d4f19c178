// Package metric provides Prometheus metrics for lsmdb.
package metric

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Namespace prefixes every metric name.
const Namespace = "lsmdb"

// Line outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
)

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Shell metrics
	LinesTotal      *prometheus.CounterVec
	Interrupts      prometheus.Counter
	SourceErrors    prometheus.Counter
	HistoryFailures prometheus.Counter

	// Engine metrics
	CommandsTotal   *prometheus.CounterVec
	CommandErrors   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with every lsmdb metric registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		LinesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "shell",
			Name:      "lines_total",
			Help:      "Non-blank input lines by grammar outcome",
		}, []string{"outcome"}),
		Interrupts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "shell",
			Name:      "interrupts_total",
			Help:      "Operator interrupts received from the line source",
		}),
		SourceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "shell",
			Name:      "line_source_errors_total",
			Help:      "Unexpected line source read errors",
		}),
		HistoryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "shell",
			Name:      "history_save_failures_total",
			Help:      "History entries that could not be persisted",
		}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "engine",
			Name:      "commands_total",
			Help:      "Commands handled by the storage engine",
		}, []string{"command"}),
		CommandErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "engine",
			Name:      "command_errors_total",
			Help:      "Commands that failed inside the storage engine",
		}, []string{"command"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "engine",
			Name:      "command_duration_seconds",
			Help:      "Storage engine command latency",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"command"}),
	}

	r.registry.MustRegister(
		r.LinesTotal,
		r.Interrupts,
		r.SourceErrors,
		r.HistoryFailures,
		r.CommandsTotal,
		r.CommandErrors,
		r.CommandDuration,
	)

	return r
}

// Register adds extra collectors to the registry.
func (r *Registry) Register(cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := r.registry.Register(c); err != nil {
			return fmt.Errorf("register collector: %w", err)
		}
	}
	return nil
}

// Sample is one flattened metric value.
type Sample struct {
	Name  string  `json:"name" yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
}

// Snapshot gathers counters and gauges as flat samples sorted by name.
// Histograms are reported by their sample count.
func (r *Registry) Snapshot() ([]Sample, error) {
	families, err := r.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	var out []Sample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName() + formatLabels(m.GetLabel())
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				out = append(out, Sample{Name: name, Value: m.GetCounter().GetValue()})
			case dto.MetricType_GAUGE:
				out = append(out, Sample{Name: name, Value: m.GetGauge().GetValue()})
			case dto.MetricType_HISTOGRAM:
				out = append(out, Sample{Name: name + "_count", Value: float64(m.GetHistogram().GetSampleCount())})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func formatLabels(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
	}
	return "{" + strings.Join(parts, ",") + "}"
}
