package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/torosent/kipbench/internal/runner"
	"github.com/torosent/kipbench/internal/suite"
)

type phaseState struct {
	name    string
	phase   string
	threads int
	runner  *runner.Runner
}

// ProgressReporter displays real-time progress of the active benchmark phase.
// It implements suite.Observer.
type ProgressReporter struct {
	current  atomic.Pointer[phaseState]
	ticker   *time.Ticker
	done     chan struct{}
	finished chan struct{}
	writer   io.Writer
	active   int32
}

var _ suite.Observer = (*ProgressReporter)(nil)

// NewProgressReporter creates a progress reporter that updates at the given interval.
func NewProgressReporter(interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		writer:   writer,
	}
}

// Observe switches the reporter to a new phase.
func (p *ProgressReporter) Observe(b suite.Benchmark, phase string, r *runner.Runner) {
	p.current.Store(&phaseState{name: b.Name, phase: phase, threads: max(b.Threads, 1), runner: r})
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			if line, ok := p.line(); ok {
				fmt.Fprint(p.writer, line)
			}
		case <-p.done:
			return
		}
	}
}

func (p *ProgressReporter) line() (string, bool) {
	st := p.current.Load()
	if st == nil {
		return "", false
	}
	done, total := st.runner.Progress()
	goal := total * int64(st.threads)
	pct := 0.0
	if goal > 0 {
		pct = min(float64(done)/float64(goal)*100, 100)
	}
	stats := st.runner.Collector().Stats()
	return fmt.Sprintf("\r%s %s | Iterations: %d/%d (%.0f%%) | Failures: %d | P50: %.1fK/s",
		st.name, st.phase, done, goal, pct, stats.Failures, stats.P50Kips), true
}
