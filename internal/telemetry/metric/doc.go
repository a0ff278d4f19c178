// Package metric provides Prometheus metrics for lsmdb.
//
// This package implements metrics collection:
//
//   - prometheus.go: Registry with shell and engine counters
//   - collector.go: Collector exposing engine statistics as gauges
//
// Metrics include:
//
//   - Input lines by outcome (accepted, rejected)
//   - Interrupts and line source failures
//   - History persistence failures
//   - Engine commands, errors and latency by command
//
// There is no exposition endpoint; the print command renders a
// snapshot of the registry.
package metric
