// File: internal/middleware/metrics.go
package middleware

import (
	"sync/atomic"
	"time"
)

// Metrics counts HTTP requests by status class
type Metrics struct {
	started       time.Time
	total         atomic.Int64
	clientErrors  atomic.Int64
	serverErrors  atomic.Int64
	slow          atomic.Int64
	totalDuration atomic.Int64
}

// MetricsSnapshot is a point-in-time copy of Metrics
type MetricsSnapshot struct {
	Requests     int64         `json:"requests"`
	ClientErrors int64         `json:"client_errors"`
	ServerErrors int64         `json:"server_errors"`
	SlowRequests int64         `json:"slow_requests"`
	AvgDuration  time.Duration `json:"avg_duration"`
	Uptime       string        `json:"uptime"`
}

// NewMetrics creates an empty collector
func NewMetrics() *Metrics {
	return &Metrics{started: time.Now()}
}

func (m *Metrics) record(status int, duration time.Duration) {
	m.total.Add(1)
	m.totalDuration.Add(int64(duration))
	switch {
	case status >= 500:
		m.serverErrors.Add(1)
	case status >= 400:
		m.clientErrors.Add(1)
	}
	if duration > slowRequestThreshold {
		m.slow.Add(1)
	}
}

// Snapshot returns the current counters
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Requests:     m.total.Load(),
		ClientErrors: m.clientErrors.Load(),
		ServerErrors: m.serverErrors.Load(),
		SlowRequests: m.slow.Load(),
		Uptime:       time.Since(m.started).Round(time.Second).String(),
	}
	if snap.Requests > 0 {
		snap.AvgDuration = time.Duration(m.totalDuration.Load() / snap.Requests)
	}
	return snap
}
