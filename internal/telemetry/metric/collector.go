// Package metric provides Prometheus metrics for lsmdb.
package metric

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
)

// StatsFunc returns the current value of each named statistic.
type StatsFunc func() map[string]float64

// Collector exposes a StatsFunc as a set of gauges.
// Values are read at collection time.
type Collector struct {
	descs map[string]*prometheus.Desc
	names []string
	stats StatsFunc
}

// NewCollector creates a collector for the given statistics.
// help maps each statistic name to its description.
func NewCollector(subsystem string, help map[string]string, stats StatsFunc) *Collector {
	c := &Collector{
		descs: make(map[string]*prometheus.Desc, len(help)),
		stats: stats,
	}
	for name, h := range help {
		c.descs[name] = prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, subsystem, name), h, nil, nil)
		c.names = append(c.names, name)
	}
	sort.Strings(c.names)
	return c
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, name := range c.names {
		ch <- c.descs[name]
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	values := c.stats()
	for _, name := range c.names {
		v, ok := values[name]
		if !ok {
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.descs[name], prometheus.GaugeValue, v)
	}
}
