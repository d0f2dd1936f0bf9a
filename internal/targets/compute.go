package targets

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/torosent/kipbench/internal/runner"
)

// NewNoop returns a target that does nothing. It measures the harness itself.
func NewNoop() runner.Target {
	return runner.TargetFunc(func(context.Context) error { return nil })
}

// NormTarget computes the Euclidean norm of a freshly built vector on every call.
// The vector offset advances per call so the work cannot be hoisted.
type NormTarget struct {
	size   int
	offset atomic.Int64
	last   atomic.Uint64 // float64 bits of the most recent norm
}

func NewNorm(size int) *NormTarget {
	if size <= 0 {
		size = DefaultVectorSize
	}
	return &NormTarget{size: size}
}

func (n *NormTarget) Do(context.Context) error {
	c := float32(n.offset.Add(1))
	data := make([]float32, n.size)
	for i := range data {
		data[i] = c + float32(i)
	}
	var sum float32
	for _, v := range data {
		sum += float32(v * v)
	}
	n.last.Store(math.Float64bits(math.Sqrt(float64(sum))))
	return nil
}

// Last returns the most recent norm.
func (n *NormTarget) Last() float64 {
	return math.Float64frombits(n.last.Load())
}

var errNegativeSleep = errors.New("sleep durations must be >= 0")

// SleepTarget blocks for a fixed base delay plus optional uniform jitter.
type SleepTarget struct {
	base   time.Duration
	jitter time.Duration
}

func NewSleep(base, jitter time.Duration) (*SleepTarget, error) {
	if base < 0 || jitter < 0 {
		return nil, errNegativeSleep
	}
	return &SleepTarget{base: base, jitter: jitter}, nil
}

func (s *SleepTarget) delay() time.Duration {
	if s.jitter <= 0 {
		return s.base
	}
	return s.base + rand.N(s.jitter+1)
}

// Do sleeps or returns ctx.Err() if ctx ends first.
func (s *SleepTarget) Do(ctx context.Context) error {
	d := s.delay()
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
