package runner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/torosent/kipbench/internal/metrics"
	"github.com/torosent/kipbench/internal/stats"
)

var (
	// ErrNoTarget is returned by Run when no target has been bound.
	ErrNoTarget = errors.New("no target bound")
	// ErrInvalidLoop is returned by Run for a non-positive loop length.
	ErrInvalidLoop = errors.New("loop must be > 0")
)

// epoch anchors the monotonic clock readings.
var epoch = time.Now()

func monotonicNanos() int64 { return int64(time.Since(epoch)) }

func wallMillis() int64 { return time.Now().UnixMilli() }

// Result captures one Run.
type Result struct {
	Iterations int64
	Failures   int64
	Elapsed    time.Duration
}

// Runner is one benchmark session: it drives the target, samples throughput
// into a stats.Accumulator and keeps the wall-clock and monotonic bookkeeping.
//
// Start, Restart, Stop and Reset must not be called concurrently with each
// other or with Run. Loop, Trace, TracePrefix and Progress may be called from
// any goroutine.
type Runner struct {
	opt       Options
	collector *metrics.Collector
	id        ulid.ULID

	mu    sync.Mutex // guards stats and trace output
	stats *stats.Accumulator

	target Target

	total    atomic.Int64
	counter  atomic.Int64
	lost     atomic.Int64
	lostMark int64

	startWall int64 // ms
	startMono int64 // ns
	stopWall  int64
	stopMono  int64
	elapsed   int64 // net ns summed over every Stop

	traceMu sync.Mutex // guards main
	main    *sampler   // samples manual loops driven through Trace

	wallClock func() int64
	monoClock func() int64
}

func New(opt Options) *Runner {
	opt.normalize()
	r := &Runner{
		opt:       opt,
		collector: opt.Collector,
		id:        ulid.Make(),
		stats:     stats.New(),
		wallClock: wallMillis,
		monoClock: monotonicNanos,
	}
	r.total.Store(DefaultTotal)
	r.main = &sampler{r: r, interval: DefaultInterval}
	return r
}

// ID identifies the current session; Start assigns a new one.
func (r *Runner) ID() string { return r.id.String() }

// Bind sets the target used by Run.
func (r *Runner) Bind(t Target) *Runner {
	r.target = t
	return r
}

// BindFunc binds fn as the target.
func (r *Runner) BindFunc(fn func(ctx context.Context) error) *Runner {
	return r.Bind(TargetFunc(fn))
}

// BindMethod binds an argument-less method of receiver as the target.
func (r *Runner) BindMethod(receiver any, name string) error {
	t, err := Method(receiver, name)
	if err != nil {
		return err
	}
	r.Bind(t)
	return nil
}

// Collector exposes the outcome tally of the current session.
func (r *Runner) Collector() *metrics.Collector { return r.collector }

// Start begins a session of total iterations sampled every interval.
// Non-positive values fall back to DefaultTotal and DefaultInterval.
// Statistics, the lost-overhead counter and the iteration counter are reset.
func (r *Runner) Start(total, interval int64) {
	if total <= 0 {
		total = DefaultTotal
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	r.total.Store(total)
	r.id = ulid.Make()
	r.Reset()
	r.Restart()

	r.traceMu.Lock()
	r.main.interval = interval
	r.main.mark = r.startMono
	r.traceMu.Unlock()
}

// Restart re-anchors the start timestamps, keeping samples and the elapsed
// time accumulated so far. Use it to time another phase of the same session.
func (r *Runner) Restart() {
	r.startWall = r.wallClock()
	r.startMono = r.monoClock()
	r.lostMark = r.lost.Load()
}

// Reset empties the statistics and zeroes every counter. Clock anchors are kept.
func (r *Runner) Reset() {
	r.mu.Lock()
	r.stats.Clear()
	r.mu.Unlock()
	r.collector.Reset()
	r.counter.Store(0)
	r.lost.Store(0)
	r.lostMark = 0
	r.elapsed = 0

	r.traceMu.Lock()
	r.main.last = 0
	r.traceMu.Unlock()
}

// Stop closes the current phase and adds its net duration (instrumentation
// overhead excluded) to the session total. The duration of the phase is returned.
func (r *Runner) Stop() time.Duration {
	r.stopWall = r.wallClock()
	r.stopMono = r.monoClock()

	sec := (r.stopWall - r.startWall) / 1000
	nsec := (r.stopMono - r.startMono) - sec*int64(time.Second)
	if nsec < 0 {
		sec--
		nsec += int64(time.Second)
	}
	net := sec*int64(time.Second) + nsec - (r.lost.Load() - r.lostMark)
	r.elapsed += net
	return time.Duration(net)
}

// Loop reports whether another iteration remains. The counter is
// post-incremented on every call, including the final one returning false.
func (r *Runner) Loop() bool {
	return r.counter.Add(1)-1 < r.total.Load()
}

// Count returns the counter minus one: the number of completed iterations
// once Loop has returned false or Run has finished.
func (r *Runner) Count() int64 {
	return r.counter.Load() - 1
}

// Progress returns the iterations completed so far and the configured total.
// During a multi-threaded Run the count advances once per sampling interval.
func (r *Runner) Progress() (done, total int64) {
	return max(r.counter.Load(), 0), r.total.Load()
}

// Elapsed returns the net time accumulated by every Stop since the last Reset.
func (r *Runner) Elapsed() time.Duration {
	return time.Duration(r.elapsed)
}

// Lost returns the instrumentation overhead accumulated since the last Reset.
func (r *Runner) Lost() time.Duration {
	return time.Duration(r.lost.Load())
}

// Trace samples throughput for a manual Loop. Call it once per iteration.
// Goroutines sharing one Loop may trace concurrently; each sample point is
// recorded at most once.
func (r *Runner) Trace() {
	r.TracePrefix("")
}

// TracePrefix samples like Trace and writes a trace line labelled prefix to
// the configured output.
func (r *Runner) TracePrefix(prefix string) {
	r.traceMu.Lock()
	defer r.traceMu.Unlock()
	r.main.prefix = prefix
	r.main.observe(r.counter.Load())
}

// Samples returns a copy of the throughput samples recorded so far.
func (r *Runner) Samples() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats.Values()
}

func (r *Runner) invoke(ctx context.Context) {
	r.collector.RecordResult(call(ctx, r.target))
}
