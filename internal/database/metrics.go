package database

import (
	"sync/atomic"
	"time"
)

// Metrics counts queries issued through the manager
type Metrics struct {
	queryCount     atomic.Int64
	errorCount     atomic.Int64
	slowQueryCount atomic.Int64
	totalDuration  atomic.Int64
}

// MetricsSnapshot is a point-in-time copy of Metrics
type MetricsSnapshot struct {
	QueryCount       int64         `json:"query_count"`
	ErrorCount       int64         `json:"error_count"`
	SlowQueryCount   int64         `json:"slow_query_count"`
	AvgQueryDuration time.Duration `json:"avg_query_duration"`
}

// NewMetrics creates an empty counter set
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) record(duration time.Duration, err error, slow bool) {
	m.queryCount.Add(1)
	m.totalDuration.Add(int64(duration))
	if err != nil {
		m.errorCount.Add(1)
	}
	if slow {
		m.slowQueryCount.Add(1)
	}
}

// Snapshot returns the current counters
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		QueryCount:     m.queryCount.Load(),
		ErrorCount:     m.errorCount.Load(),
		SlowQueryCount: m.slowQueryCount.Load(),
	}
	if snap.QueryCount > 0 {
		snap.AvgQueryDuration = time.Duration(m.totalDuration.Load() / snap.QueryCount)
	}
	return snap
}
