// Package metrics provides performance instrumentation for tl.
//
// The hot paths of the tree model (flat index lookups, batch dispatch,
// lazy loading, rendering) record their durations here so that deep or wide
// trees can be profiled without a debugger. Collection is enabled by default
// and can be disabled via TL_METRICS=0.
//
// Usage:
//
//	func (f *Flattener) IndexOf(n *Node) int {
//	    defer metrics.Timer(metrics.IndexOf)()
//	    // ...
//	}
package metrics

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"text/tabwriter"
	"time"
)

// enabled controls whether metrics are collected.
var enabled = os.Getenv("TL_METRICS") != "0"

// Enabled returns whether metrics collection is enabled.
func Enabled() bool {
	return enabled
}

// SetEnabled allows programmatic control of metrics collection.
func SetEnabled(e bool) {
	enabled = e
}

// TimingMetric tracks timing statistics for a named operation. Recording is
// atomic so a stats dump may run on another goroutine than the UI loop.
type TimingMetric struct {
	name    string
	count   int64
	totalNs int64
	maxNs   int64
	minNs   int64 // 0 means not set
}

func newTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name}
}

// Record records a single timing measurement.
func (m *TimingMetric) Record(d time.Duration) {
	if !enabled {
		return
	}
	ns := d.Nanoseconds()
	if ns <= 0 {
		ns = 1
	}
	atomic.AddInt64(&m.count, 1)
	atomic.AddInt64(&m.totalNs, ns)
	for {
		old := atomic.LoadInt64(&m.maxNs)
		if ns <= old || atomic.CompareAndSwapInt64(&m.maxNs, old, ns) {
			break
		}
	}
	for {
		old := atomic.LoadInt64(&m.minNs)
		if old != 0 && ns >= old {
			break
		}
		if atomic.CompareAndSwapInt64(&m.minNs, old, ns) {
			break
		}
	}
}

// Name returns the metric name.
func (m *TimingMetric) Name() string { return m.name }

// Count returns the number of recorded measurements.
func (m *TimingMetric) Count() int64 { return atomic.LoadInt64(&m.count) }

// Stats returns all timing statistics at once.
func (m *TimingMetric) Stats() TimingStats {
	count := atomic.LoadInt64(&m.count)
	totalNs := atomic.LoadInt64(&m.totalNs)
	var avgNs int64
	if count > 0 {
		avgNs = totalNs / count
	}
	return TimingStats{
		Name:    m.name,
		Count:   count,
		TotalMs: float64(totalNs) / 1e6,
		AvgMs:   float64(avgNs) / 1e6,
		MaxMs:   float64(atomic.LoadInt64(&m.maxNs)) / 1e6,
		MinMs:   float64(atomic.LoadInt64(&m.minNs)) / 1e6,
	}
}

// Reset clears all recorded measurements.
func (m *TimingMetric) Reset() {
	atomic.StoreInt64(&m.count, 0)
	atomic.StoreInt64(&m.totalNs, 0)
	atomic.StoreInt64(&m.maxNs, 0)
	atomic.StoreInt64(&m.minNs, 0)
}

// TimingStats holds a snapshot of timing statistics.
type TimingStats struct {
	Name    string  `json:"name"`
	Count   int64   `json:"count"`
	TotalMs float64 `json:"total_ms"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
	MinMs   float64 `json:"min_ms,omitempty"`
}

// Timer returns a function that records elapsed time when called:
//
//	defer metrics.Timer(metrics.NodeAt)()
func Timer(m *TimingMetric) func() {
	if !enabled || m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.Record(time.Since(start))
	}
}

// Global timing metrics.
var (
	IndexOf    = newTimingMetric("index_of")
	NodeAt     = newTimingMetric("node_at")
	Batch      = newTimingMetric("batch_dispatch")
	LazyLoad   = newTimingMetric("lazy_load")
	SourceLoad = newTimingMetric("source_load")
	UIRender   = newTimingMetric("ui_render")
)

// AllTimingMetrics returns all registered timing metrics.
func AllTimingMetrics() []*TimingMetric {
	return []*TimingMetric{IndexOf, NodeAt, Batch, LazyLoad, SourceLoad, UIRender}
}

// ResetAll resets all timing metrics.
func ResetAll() {
	for _, m := range AllTimingMetrics() {
		m.Reset()
	}
}

// AllTimingStats returns stats for the metrics that recorded anything.
func AllTimingStats() []TimingStats {
	all := AllTimingMetrics()
	stats := make([]TimingStats, 0, len(all))
	for _, m := range all {
		if m.Count() > 0 {
			stats = append(stats, m.Stats())
		}
	}
	return stats
}

// WriteReport writes a human readable table of AllTimingStats.
func WriteReport(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tCOUNT\tTOTAL ms\tAVG ms\tMAX ms")
	for _, s := range AllTimingStats() {
		fmt.Fprintf(tw, "%s\t%d\t%.3f\t%.4f\t%.3f\n", s.Name, s.Count, s.TotalMs, s.AvgMs, s.MaxMs)
	}
	return tw.Flush()
}
