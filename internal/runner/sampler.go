package runner

import (
	"fmt"
	"time"
)

const nanosPerMilli = 1e6

// sampler turns every interval-th completed iteration into a throughput
// sample. Each worker owns one; the Runner serialises what they record.
type sampler struct {
	r        *Runner
	interval int64
	prefix   string // empty disables trace lines
	mark     int64  // monotonic ns of the previous sample point
	last     int64  // completed count of the previous sample point
}

func (r *Runner) newSampler(prefix string, interval int64) *sampler {
	return &sampler{
		r:        r,
		interval: interval,
		prefix:   prefix,
		mark:     r.monoClock(),
	}
}

// observe is called with the number of iterations completed so far.
func (s *sampler) observe(completed int64) {
	if completed <= s.last || completed%s.interval != 0 {
		return
	}
	s.last = completed
	now := s.r.monoClock()
	took := max(now-s.mark, 1)
	k := kips(took, s.interval)
	s.r.record(k, s.prefix, completed, took)

	s.mark = s.r.monoClock()
	s.r.lost.Add(s.mark - now)
}

func (r *Runner) record(k float64, prefix string, completed, took int64) {
	r.mu.Lock()
	r.stats.Push(k)
	if prefix != "" && r.opt.Out != nil {
		fmt.Fprintf(r.opt.Out, "%s[%07d]\t%s\t%.3fK/s\n", prefix, completed, FormatElapsed(time.Duration(took)), k)
	}
	r.mu.Unlock()
	r.collector.RecordSample(k)
}

// kips converts n operations over nanos into operations per millisecond.
func kips(nanos, n int64) float64 {
	return float64(n) * nanosPerMilli / float64(nanos)
}
