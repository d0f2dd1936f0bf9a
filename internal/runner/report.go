package runner

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/torosent/kipbench/internal/metrics"
)

// Summary is the structured form of Metric.
type Summary struct {
	ID         string        `json:"id" yaml:"id"`
	Name       string        `json:"name" yaml:"name"`
	Iterations int64         `json:"iterations" yaml:"iterations"`
	Elapsed    time.Duration `json:"elapsed_ns" yaml:"elapsed"`
	Lost       time.Duration `json:"lost_ns" yaml:"lost"`
	MIPS       float64       `json:"mips" yaml:"mips"`
	MsPerOp    float64       `json:"ms_per_op" yaml:"ms_per_op"`
	MinKips    float64       `json:"min_kips" yaml:"min_kips"`
	MaxKips    float64       `json:"max_kips" yaml:"max_kips"`
	AvgKips    float64       `json:"avg_kips" yaml:"avg_kips"`
	MeanKips   float64       `json:"mean_kips" yaml:"mean_kips"`
	GMeanKips  float64       `json:"gmean_kips" yaml:"gmean_kips"`
	MedianKips float64       `json:"median_kips" yaml:"median_kips"`
	SdevKips   float64       `json:"sdev_kips" yaml:"sdev_kips"`
	Samples    []float64     `json:"samples,omitempty" yaml:"samples,omitempty"`
	Outcomes   metrics.Stats `json:"outcomes" yaml:"outcomes"`
}

// Summary snapshots the session. When no sample has been recorded yet a
// single whole-run sample is pushed first.
func (r *Runner) Summary(name string) Summary {
	r.ensureSample()

	r.mu.Lock()
	a := r.stats
	s := Summary{
		ID:         r.ID(),
		Name:       name,
		Iterations: max(r.Count(), 0),
		Elapsed:    r.Elapsed(),
		Lost:       r.Lost(),
		MIPS:       a.Mean() / 1000,
		MinKips:    a.Min(),
		MaxKips:    a.Max(),
		AvgKips:    a.Average(),
		MeanKips:   a.Mean(),
		GMeanKips:  a.GeometricMean(),
		MedianKips: a.Median(),
		SdevKips:   a.Sdev(),
		Samples:    a.Values(),
	}
	r.mu.Unlock()

	if s.MeanKips > 0 {
		s.MsPerOp = 1 / s.MeanKips
	}
	s.Outcomes = r.collector.Stats()
	return s
}

// String renders the summary as a single metric line.
func (s Summary) String() string {
	return fmt.Sprintf("%s ETA:%s MIPS:%.3f %.3fms/per min:%.3fK/s max:%.3fK/s avg:%.3fK/s mean:%.3fK/s count:%d lost:%s",
		s.Name,
		FormatElapsed(s.Elapsed),
		s.MIPS,
		s.MsPerOp,
		s.MinKips,
		s.MaxKips,
		s.AvgKips,
		s.GMeanKips,
		s.Iterations,
		FormatElapsed(s.Lost),
	)
}

// Metric returns the one-line summary labelled prefix.
func (r *Runner) Metric(prefix string) string {
	return r.Summary(prefix).String()
}

// PrintMetric writes Metric(prefix) to w.
func (r *Runner) PrintMetric(w io.Writer, prefix string) error {
	_, err := fmt.Fprintln(w, r.Metric(prefix))
	return err
}

// Average formats the accumulated elapsed time divided by times.
func (r *Runner) Average(times int64) string {
	return FormatElapsed(r.Elapsed() / time.Duration(max(times, 1)))
}

// ensureSample pushes one whole-run sample for runs shorter than an interval.
func (r *Runner) ensureSample() {
	r.mu.Lock()
	empty := r.stats.Count() == 0
	r.mu.Unlock()
	if !empty {
		return
	}
	n := max(r.Count(), 1)
	k := kips(max(int64(r.Elapsed()), 1), n)
	r.mu.Lock()
	r.stats.Push(k)
	r.mu.Unlock()
	r.collector.RecordSample(k)
}

// FormatElapsed renders d as its non-zero second, millisecond and nanosecond
// components, e.g. "1s 500ms" or "2ms 500ns". Zero or negative durations
// render as "0ms".
func FormatElapsed(d time.Duration) string {
	n := int64(d)
	sec := n / int64(time.Second)
	n -= sec * int64(time.Second)
	ms := n / int64(time.Millisecond)
	ns := n - ms*int64(time.Millisecond)

	parts := make([]string, 0, 3)
	if sec > 0 {
		parts = append(parts, fmt.Sprintf("%ds", sec))
	}
	if ms > 0 {
		parts = append(parts, fmt.Sprintf("%dms", ms))
	}
	if ns > 0 {
		parts = append(parts, fmt.Sprintf("%dns", ns))
	}
	if len(parts) == 0 {
		return "0ms"
	}
	return strings.Join(parts, " ")
}
