package health

import (
	"github.com/spectralab/spectral-server/internal/monitor"
)

// Status is the serving state reported by health checks.
type Status string

const (
	StatusServing    Status = "SERVING"
	StatusNotServing Status = "NOT_SERVING"
)

// Checker reports service health based on current transcription load.
type Checker struct {
	loadMonitor monitor.LoadMonitor
}

func NewChecker(loadMonitor monitor.LoadMonitor) *Checker {
	return &Checker{loadMonitor: loadMonitor}
}

// Check returns the serving status. The service reports NOT_SERVING when the
// load monitor says the slot usage is above its threshold.
func (c *Checker) Check() Status {
	if c.loadMonitor.IsHealthy() {
		return StatusServing
	}
	return StatusNotServing
}

// Metrics returns current load metrics for monitoring.
func (c *Checker) Metrics() monitor.LoadMetrics {
	return c.loadMonitor.GetMetrics()
}
