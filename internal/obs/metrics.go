package obs

import (
	"sync/atomic"
	"time"
)

// Metrics collects lightweight counters for the event fabric.
type Metrics struct {
	marketEvents    atomic.Uint64
	indicatorEvents atomic.Uint64
	configUpdates   atomic.Uint64
	auditRecords    atomic.Uint64

	publishStall LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count atomic.Uint64
	sum   atomic.Uint64
	max   atomic.Uint64
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	MarketEvents    uint64
	IndicatorEvents uint64
	ConfigUpdates   uint64
	AuditRecords    uint64
	PublishStall    LatencySnapshot
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Avg   time.Duration
	Max   time.Duration
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncMarketEvent counts one published market event.
func (m *Metrics) IncMarketEvent() {
	if m == nil {
		return
	}
	m.marketEvents.Add(1)
}

// IncIndicatorEvent counts one published indicator event.
func (m *Metrics) IncIndicatorEvent() {
	if m == nil {
		return
	}
	m.indicatorEvents.Add(1)
}

// IncConfigUpdate counts one configuration value delivered.
func (m *Metrics) IncConfigUpdate() {
	if m == nil {
		return
	}
	m.configUpdates.Add(1)
}

// IncAuditRecord counts one audit record captured.
func (m *Metrics) IncAuditRecord() {
	if m == nil {
		return
	}
	m.auditRecords.Add(1)
}

// ObservePublishStall records how long a producer was blocked on a full
// queue. Zero-duration publishes are still counted.
func (m *Metrics) ObservePublishStall(d time.Duration) {
	if m == nil || d < 0 {
		return
	}
	ns := uint64(d.Nanoseconds())
	m.publishStall.count.Add(1)
	m.publishStall.sum.Add(ns)
	for {
		prev := m.publishStall.max.Load()
		if ns <= prev || m.publishStall.max.CompareAndSwap(prev, ns) {
			break
		}
	}
}

// Snapshot captures the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	count := m.publishStall.count.Load()
	sum := m.publishStall.sum.Load()
	var avg time.Duration
	if count > 0 {
		avg = time.Duration(sum / count)
	}
	return Snapshot{
		MarketEvents:    m.marketEvents.Load(),
		IndicatorEvents: m.indicatorEvents.Load(),
		ConfigUpdates:   m.configUpdates.Load(),
		AuditRecords:    m.auditRecords.Load(),
		PublishStall: LatencySnapshot{
			Count: count,
			Avg:   avg,
			Max:   time.Duration(m.publishStall.max.Load()),
		},
	}
}
