package observability

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects and aggregates counters for handled inbound updates.
type Metrics struct {
	mu sync.Mutex

	requestTotal  atomic.Int64
	requestFailed atomic.Int64

	actionMetrics map[string]*ActionMetrics
}

// ActionMetrics represents metrics for a specific action kind.
type ActionMetrics struct {
	executionCount atomic.Int64
	totalDuration  atomic.Int64 // milliseconds
	errorCount     atomic.Int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		actionMetrics: make(map[string]*ActionMetrics),
	}
}

// RecordRequest records a handled update.
func (m *Metrics) RecordRequest(action string, duration time.Duration) {
	m.requestTotal.Add(1)
	am := m.getActionMetrics(action)
	am.executionCount.Add(1)
	am.totalDuration.Add(duration.Milliseconds())
}

// RecordFailure records a failed update.
func (m *Metrics) RecordFailure(action string) {
	m.requestFailed.Add(1)
	m.getActionMetrics(action).errorCount.Add(1)
}

func (m *Metrics) getActionMetrics(action string) *ActionMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	am, ok := m.actionMetrics[action]
	if !ok {
		am = &ActionMetrics{}
		m.actionMetrics[action] = am
	}
	return am
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	actions := make(map[string]*ActionMetricsSnapshot, len(m.actionMetrics))
	for action, am := range m.actionMetrics {
		count := am.executionCount.Load()
		var avg int64
		if count > 0 {
			avg = am.totalDuration.Load() / count
		}
		actions[action] = &ActionMetricsSnapshot{
			ExecutionCount:  count,
			ErrorCount:      am.errorCount.Load(),
			AverageDuration: avg,
		}
	}

	return &MetricsSnapshot{
		RequestTotal:  m.requestTotal.Load(),
		RequestFailed: m.requestFailed.Load(),
		Actions:       actions,
	}
}

// Actions returns the action kinds recorded so far, sorted.
func (m *Metrics) Actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	actions := make([]string, 0, len(m.actionMetrics))
	for action := range m.actionMetrics {
		actions = append(actions, action)
	}
	sort.Strings(actions)
	return actions
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	RequestTotal  int64                             `json:"request_total"`
	RequestFailed int64                             `json:"request_failed"`
	Actions       map[string]*ActionMetricsSnapshot `json:"actions"`
}

// ActionMetricsSnapshot represents metrics for a specific action kind.
type ActionMetricsSnapshot struct {
	ExecutionCount  int64 `json:"execution_count"`
	ErrorCount      int64 `json:"error_count"`
	AverageDuration int64 `json:"average_duration_ms"`
}
