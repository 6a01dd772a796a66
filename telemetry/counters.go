package telemetry

import "sync/atomic"

// RunCounters tracks run-lifecycle totals with lock-free atomics, matching
// the concurrency model's requirement that telemetry counters be readable
// concurrently with writes without a shared lock. A Snapshot is not atomic
// across all four counters — a writer may land between two reads — which
// is an accepted tolerance, not a bug.
type RunCounters struct {
	started   atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	events    atomic.Int64
}

// RunStarted records that a run began.
func (c *RunCounters) RunStarted() { c.started.Add(1) }

// RunCompleted records that a run reached a terminal receipt successfully.
func (c *RunCounters) RunCompleted() { c.completed.Add(1) }

// RunFailed records that a run ended in error.
func (c *RunCounters) RunFailed() { c.failed.Add(1) }

// EventObserved records one streamed AgentEvent.
func (c *RunCounters) EventObserved() { c.events.Add(1) }

// CounterSnapshot is a point-in-time read of RunCounters.
type CounterSnapshot struct {
	Started   int64
	Completed int64
	Failed    int64
	Events    int64
}

// Snapshot reads all four counters. The read is not atomic as a whole: a
// concurrent writer may be observed in one field but not another.
func (c *RunCounters) Snapshot() CounterSnapshot {
	return CounterSnapshot{
		Started:   c.started.Load(),
		Completed: c.completed.Load(),
		Failed:    c.failed.Load(),
		Events:    c.events.Load(),
	}
}

// PublishRunCounters reports a CounterSnapshot through m as four named
// gauges. It is the bridge between RunCounters' lock-free atomics and
// whatever Metrics backend a Runtime is configured with (ClueMetrics,
// NoopMetrics, or a test double), so a snapshot taken after a run completes
// shows up alongside the rest of that backend's instrumentation instead of
// only being reachable by polling RunCounters.Snapshot directly.
func PublishRunCounters(m Metrics, snap CounterSnapshot, tags ...string) {
	m.RecordGauge("abp_runs_started", float64(snap.Started), tags...)
	m.RecordGauge("abp_runs_completed", float64(snap.Completed), tags...)
	m.RecordGauge("abp_runs_failed", float64(snap.Failed), tags...)
	m.RecordGauge("abp_events_observed", float64(snap.Events), tags...)
}
