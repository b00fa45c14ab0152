// Package monitor tracks gateway performance counters and latency windows.
package monitor

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// SystemMetrics tracks API and upstream call performance.
type SystemMetrics struct {
	// Latency histograms
	APILatency      *LatencyHistogram
	UpstreamLatency *LatencyHistogram

	// Counters
	apiRequests    uint64
	apiErrors      uint64
	upstreamCalls  uint64
	upstreamErrors uint64

	startedAt time.Time
}

// NewSystemMetrics creates a new metrics instance.
func NewSystemMetrics() *SystemMetrics {
	return &SystemMetrics{
		APILatency:      NewLatencyHistogram(1000),
		UpstreamLatency: NewLatencyHistogram(1000),
		startedAt:       time.Now(),
	}
}

// IncrementAPI counts one inbound request.
func (m *SystemMetrics) IncrementAPI() { atomic.AddUint64(&m.apiRequests, 1) }

// IncrementAPIErrors counts one inbound request that ended >= 400.
func (m *SystemMetrics) IncrementAPIErrors() { atomic.AddUint64(&m.apiErrors, 1) }

// IncrementUpstream counts one outbound backend call.
func (m *SystemMetrics) IncrementUpstream() { atomic.AddUint64(&m.upstreamCalls, 1) }

// IncrementUpstreamErrors counts one failed outbound backend call.
func (m *SystemMetrics) IncrementUpstreamErrors() { atomic.AddUint64(&m.upstreamErrors, 1) }

// Snapshot is a point-in-time metrics view for the status endpoints.
type Snapshot struct {
	UptimeSeconds   float64      `json:"uptime_seconds"`
	APIRequests     uint64       `json:"api_requests"`
	APIErrors       uint64       `json:"api_errors"`
	UpstreamCalls   uint64       `json:"upstream_calls"`
	UpstreamErrors  uint64       `json:"upstream_errors"`
	APILatency      LatencyStats `json:"api_latency_ms"`
	UpstreamLatency LatencyStats `json:"upstream_latency_ms"`
}

// Snapshot captures current counters and latency stats.
func (m *SystemMetrics) Snapshot() Snapshot {
	return Snapshot{
		UptimeSeconds:   time.Since(m.startedAt).Seconds(),
		APIRequests:     atomic.LoadUint64(&m.apiRequests),
		APIErrors:       atomic.LoadUint64(&m.apiErrors),
		UpstreamCalls:   atomic.LoadUint64(&m.upstreamCalls),
		UpstreamErrors:  atomic.LoadUint64(&m.upstreamErrors),
		APILatency:      m.APILatency.Stats(),
		UpstreamLatency: m.UpstreamLatency.Stats(),
	}
}

// LatencyHistogram tracks latency samples in a sliding window with lazy
// stats computation.
type LatencyHistogram struct {
	mu          sync.Mutex
	samples     []float64
	maxSize     int
	dirty       bool
	cachedStats LatencyStats
}

// LatencyStats summarizes a latency window in milliseconds.
type LatencyStats struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
}

// NewLatencyHistogram creates a sliding-window histogram.
func NewLatencyHistogram(size int) *LatencyHistogram {
	if size <= 0 {
		size = 1000
	}
	return &LatencyHistogram{
		samples: make([]float64, 0, size),
		maxSize: size,
		dirty:   true,
	}
}

// Record adds a latency sample in milliseconds.
func (h *LatencyHistogram) Record(latencyMs float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.samples) >= h.maxSize {
		h.samples = h.samples[1:]
	}
	h.samples = append(h.samples, latencyMs)
	h.dirty = true
}

// RecordDuration converts duration to ms and records.
func (h *LatencyHistogram) RecordDuration(d time.Duration) {
	h.Record(float64(d.Nanoseconds()) / 1e6)
}

// Stats returns min, max, avg and percentiles; recomputed only when samples
// changed since the last call.
func (h *LatencyHistogram) Stats() LatencyStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.dirty {
		return h.cachedStats
	}
	if len(h.samples) == 0 {
		h.cachedStats = LatencyStats{}
		h.dirty = false
		return h.cachedStats
	}

	sorted := make([]float64, len(h.samples))
	copy(sorted, h.samples)
	sort.Float64s(sorted)

	sum := 0.0
	for _, s := range sorted {
		sum += s
	}

	h.cachedStats = LatencyStats{
		Count: len(sorted),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		Avg:   sum / float64(len(sorted)),
		P50:   percentile(sorted, 50),
		P95:   percentile(sorted, 95),
		P99:   percentile(sorted, 99),
	}
	h.dirty = false
	return h.cachedStats
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
