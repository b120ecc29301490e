package kanon

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; package
// prom provides a Prometheus implementation.
//
// Implementations must be safe for concurrent use when shared by
// concurrent runs (see RunBest).
type MetricsCollector interface {
	// RecordPhase is called at the end of every phase of a run.
	// changed reports whether the phase modified the partition.
	RecordPhase(phase Phase, duration time.Duration, changed bool)

	// RecordRun is called after each Execute call. stats is nil if err is set.
	RecordRun(stats *Statistics, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordPhase(Phase, time.Duration, bool)        {}
func (NoopMetricsCollector) RecordRun(*Statistics, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	RunCount       atomic.Int64
	RunErrors      atomic.Int64
	RunTotalNanos  atomic.Int64
	PhaseCount     atomic.Int64
	PhaseChanged   atomic.Int64
	RecordsMoved   atomic.Int64
	ClustersSplit  atomic.Int64
	ClustersMerged atomic.Int64
	// RunsStopped counts successful runs that ended before a fixpoint.
	RunsStopped atomic.Int64
}

// RecordPhase implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPhase(_ Phase, _ time.Duration, changed bool) {
	b.PhaseCount.Add(1)
	if changed {
		b.PhaseChanged.Add(1)
	}
}

// RecordRun implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRun(stats *Statistics, duration time.Duration, err error) {
	b.RunCount.Add(1)
	b.RunTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RunErrors.Add(1)
		return
	}
	b.RecordsMoved.Add(int64(stats.RecordsMoved))
	b.ClustersSplit.Add(int64(stats.ClustersSplit))
	b.ClustersMerged.Add(int64(stats.ClustersMerged))
	if !stats.Converged {
		b.RunsStopped.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		RunCount:       b.RunCount.Load(),
		RunErrors:      b.RunErrors.Load(),
		RunAvgNanos:    b.getAvgRunNanos(),
		PhaseCount:     b.PhaseCount.Load(),
		PhaseChanged:   b.PhaseChanged.Load(),
		RecordsMoved:   b.RecordsMoved.Load(),
		ClustersSplit:  b.ClustersSplit.Load(),
		ClustersMerged: b.ClustersMerged.Load(),
		RunsStopped:    b.RunsStopped.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgRunNanos() int64 {
	count := b.RunCount.Load()
	if count == 0 {
		return 0
	}
	return b.RunTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	RunCount       int64
	RunErrors      int64
	RunAvgNanos    int64
	PhaseCount     int64
	PhaseChanged   int64
	RecordsMoved   int64
	ClustersSplit  int64
	ClustersMerged int64
	RunsStopped    int64
}
