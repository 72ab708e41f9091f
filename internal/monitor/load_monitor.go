package monitor

// LoadMetrics is a snapshot of inference slot usage.
type LoadMetrics struct {
	ActiveTasks    int64
	MaxTasks       int64
	LoadPercentage float64
}

// LoadMonitor tracks how many heavyweight inference tasks are in flight.
// Local model inference pins a CPU core per run, so the engine acquires a
// slot before touching the model and the health endpoint reads the same
// counters.
type LoadMonitor interface {
	// GetMetrics returns current load statistics.
	GetMetrics() LoadMetrics

	// IsHealthy reports whether load is below the configured threshold.
	IsHealthy() bool

	// TryAcquire attempts to take a task slot without blocking. The caller
	// MUST call Release() when the task completes.
	TryAcquire() bool

	// Release returns a slot taken by TryAcquire.
	Release()
}
