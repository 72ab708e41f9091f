package monitor

import (
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// SemaphoreLoadMonitor implements LoadMonitor with a weighted semaphore.
type SemaphoreLoadMonitor struct {
	sem       *semaphore.Weighted
	maxWeight int64
	activeCnt atomic.Int64
	threshold float64 // 0.0 - 1.0, share of max capacity
}

// NewSemaphoreLoadMonitor creates a monitor allowing maxConcurrency
// simultaneous tasks. healthThreshold is the load share (0.0-1.0) above
// which the service reports unhealthy.
func NewSemaphoreLoadMonitor(maxConcurrency int64, healthThreshold float64) *SemaphoreLoadMonitor {
	if healthThreshold < 0.0 {
		healthThreshold = 0.0
	}
	if healthThreshold > 1.0 {
		healthThreshold = 1.0
	}

	return &SemaphoreLoadMonitor{
		sem:       semaphore.NewWeighted(maxConcurrency),
		maxWeight: maxConcurrency,
		threshold: healthThreshold,
	}
}

func (m *SemaphoreLoadMonitor) GetMetrics() LoadMetrics {
	active := m.activeCnt.Load()
	loadPct := 0.0
	if m.maxWeight > 0 {
		loadPct = float64(active) / float64(m.maxWeight) * 100.0
	}

	return LoadMetrics{
		ActiveTasks:    active,
		MaxTasks:       m.maxWeight,
		LoadPercentage: loadPct,
	}
}

func (m *SemaphoreLoadMonitor) IsHealthy() bool {
	metrics := m.GetMetrics()
	return metrics.LoadPercentage/100.0 <= m.threshold
}

func (m *SemaphoreLoadMonitor) TryAcquire() bool {
	if m.sem.TryAcquire(1) {
		m.activeCnt.Add(1)
		return true
	}
	return false
}

func (m *SemaphoreLoadMonitor) Release() {
	m.activeCnt.Add(-1)
	m.sem.Release(1)
}

var _ LoadMonitor = (*SemaphoreLoadMonitor)(nil)
