package reminder

import (
	"sync"
	"time"
)

// Stats holds firing loop statistics.
type Stats struct {
	TotalProcessed int64     `json:"total_processed"`
	TotalFailed    int64     `json:"total_failed"`
	Cycles         int64     `json:"cycles"`
	FailedCycles   int64     `json:"failed_cycles"`
	LastRunAt      time.Time `json:"last_run_at"`
	LastError      string    `json:"last_error,omitempty"`
	AverageLatency float64   `json:"average_latency_ms"`
}

// MetricsCollector collects firing loop metrics.
type MetricsCollector struct {
	stats        Stats
	totalLatency time.Duration
	mu           sync.RWMutex
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{}
}

// RecordProcessed records delivered records.
func (m *MetricsCollector) RecordProcessed(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.TotalProcessed += int64(count)
}

// RecordFailed records failed deliveries.
func (m *MetricsCollector) RecordFailed(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.TotalFailed += int64(count)
}

// RecordCycle records the end of a cycle.
func (m *MetricsCollector) RecordCycle(latency time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Cycles++
	m.stats.LastRunAt = time.Now()
	m.totalLatency += latency
	m.stats.AverageLatency = float64(m.totalLatency.Milliseconds()) / float64(m.stats.Cycles)
	if err != nil {
		m.stats.FailedCycles++
		m.stats.LastError = err.Error()
	} else {
		m.stats.LastError = ""
	}
}

// GetStats returns current statistics.
func (m *MetricsCollector) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}
