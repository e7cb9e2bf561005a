package sim

import (
	"sync/atomic"
	"time"
)

// Metrics collects lightweight counters and per-minute timing for one run.
// A nil Metrics ignores every call.
type Metrics struct {
	minutes       uint64
	closedMinutes uint64
	traderErrors  uint64

	tickLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// MetricsSnapshot captures the current counters.
type MetricsSnapshot struct {
	Minutes       uint64
	ClosedMinutes uint64
	TraderErrors  uint64
	TickLatency   LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncMinute records one simulated minute with the market open.
func (m *Metrics) IncMinute() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.minutes, 1)
}

// IncClosedMinute records one simulated minute skipped as market closed.
func (m *Metrics) IncClosedMinute() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.closedMinutes, 1)
}

// IncTraderError records a failed or panicked trader cycle.
func (m *Metrics) IncTraderError() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.traderErrors, 1)
}

// ObserveTick measures the wall time one simulated minute took to process.
func (m *Metrics) ObserveTick(d time.Duration) {
	if m == nil {
		return
	}
	m.tickLatency.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		Minutes:       atomic.LoadUint64(&m.minutes),
		ClosedMinutes: atomic.LoadUint64(&m.closedMinutes),
		TraderErrors:  atomic.LoadUint64(&m.traderErrors),
		TickLatency:   m.tickLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
