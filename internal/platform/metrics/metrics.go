package metrics

import (
	"sync/atomic"
	"time"
)

// Collector keeps in-process counters for the HTTP surface and the
// allocation pipeline. Everything is atomic; Snapshot is safe to call
// from the /metrics handler at any time.
type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	allocations        uint64
	allocationRetries  uint64
	allocationFailures uint64
	duplicatesRejected uint64
	proofFailures      uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// RecordAllocation counts a successful allocation; attempts beyond the
// first mean the uniqueness backstop caught an insert race.
func (c *Collector) RecordAllocation(attempts int) {
	atomic.AddUint64(&c.allocations, 1)
	if attempts > 1 {
		atomic.AddUint64(&c.allocationRetries, uint64(attempts-1))
	}
}

func (c *Collector) RecordAllocationFailure() {
	atomic.AddUint64(&c.allocationFailures, 1)
}

func (c *Collector) RecordDuplicate() {
	atomic.AddUint64(&c.duplicatesRejected, 1)
}

func (c *Collector) RecordProofFailure() {
	atomic.AddUint64(&c.proofFailures, 1)
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":           total,
		"errorsTotal":             atomic.LoadUint64(&c.errorRequests),
		"rateLimitedTotal":        atomic.LoadUint64(&c.rateLimited),
		"avgDurationMs":           avg,
		"allocationsTotal":        atomic.LoadUint64(&c.allocations),
		"allocationRetriesTotal":  atomic.LoadUint64(&c.allocationRetries),
		"allocationFailuresTotal": atomic.LoadUint64(&c.allocationFailures),
		"duplicatesRejectedTotal": atomic.LoadUint64(&c.duplicatesRejected),
		"proofFailuresTotal":      atomic.LoadUint64(&c.proofFailures),
	}
}
