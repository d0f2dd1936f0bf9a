package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Throughput samples are recorded in operations per second (kips × 1000) so
// the histogram keeps three significant figures for sub-1 K/s targets too.
const (
	opsPerKip        = 1000
	lowestOpsPerSec  = 1
	highestOpsPerSec = 10_000_000_000
)

// Collector tallies target outcomes and throughput samples.
// RecordResult and RecordSample are safe for concurrent use.
type Collector struct {
	successes atomic.Int64

	mu           sync.Mutex
	hist         *hdrhistogram.Histogram
	failures     int64
	errorsByType map[string]int64
}

// Stats is a point-in-time view of a Collector.
type Stats struct {
	Invocations int64            `json:"invocations" yaml:"invocations"`
	Successes   int64            `json:"successes" yaml:"successes"`
	Failures    int64            `json:"failures" yaml:"failures"`
	Samples     int64            `json:"samples" yaml:"samples"`
	P50Kips     float64          `json:"p50_kips" yaml:"p50_kips"`
	P90Kips     float64          `json:"p90_kips" yaml:"p90_kips"`
	P99Kips     float64          `json:"p99_kips" yaml:"p99_kips"`
	Errors      map[string]int64 `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// FailureRate returns failures/invocations, or 0 with no invocations.
func (s Stats) FailureRate() float64 {
	if s.Invocations == 0 {
		return 0
	}
	return float64(s.Failures) / float64(s.Invocations)
}

func NewCollector() *Collector {
	return &Collector{
		hist:         hdrhistogram.New(lowestOpsPerSec, highestOpsPerSec, 3),
		errorsByType: make(map[string]int64),
	}
}

// RecordResult records the outcome of one target invocation.
func (c *Collector) RecordResult(err error) {
	if err == nil {
		c.successes.Add(1)
		return
	}
	name := ErrorLabel(err)

	c.mu.Lock()
	c.failures++
	c.errorsByType[name]++
	c.mu.Unlock()
}

// RecordSample records one throughput sample in kips.
func (c *Collector) RecordSample(kips float64) {
	v := int64(kips * opsPerKip)
	c.mu.Lock()
	defer c.mu.Unlock()
	if v < c.hist.LowestTrackableValue() {
		v = c.hist.LowestTrackableValue()
	}
	if v > c.hist.HighestTrackableValue() {
		v = c.hist.HighestTrackableValue()
	}
	_ = c.hist.RecordValue(v)
}

// Reset discards all recorded outcomes and samples.
func (c *Collector) Reset() {
	c.successes.Store(0)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hist.Reset()
	c.failures = 0
	c.errorsByType = make(map[string]int64)
}

// Stats computes the current aggregate view.
func (c *Collector) Stats() Stats {
	successes := c.successes.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{
		Invocations: successes + c.failures,
		Successes:   successes,
		Failures:    c.failures,
		Samples:     c.hist.TotalCount(),
	}
	if stats.Samples > 0 {
		stats.P50Kips = float64(c.hist.ValueAtQuantile(50)) / opsPerKip
		stats.P90Kips = float64(c.hist.ValueAtQuantile(90)) / opsPerKip
		stats.P99Kips = float64(c.hist.ValueAtQuantile(99)) / opsPerKip
	}
	if len(c.errorsByType) > 0 {
		stats.Errors = make(map[string]int64, len(c.errorsByType))
		for k, v := range c.errorsByType {
			stats.Errors[k] = v
		}
	}
	return stats
}
