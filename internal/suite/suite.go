// Package suite drives a list of benchmarks through their warmup and measure
// phases, timing the whole list with a container session.
package suite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/torosent/kipbench/internal/runner"
	"github.com/torosent/kipbench/internal/tracing"
)

const (
	PhaseWarmup  = "warmup"
	PhaseMeasure = "measure"

	// ContainerName labels the metric of the session spanning every benchmark.
	ContainerName = "Test container"
)

var (
	ErrNoBenchmarks = errors.New("suite: no benchmarks")
	ErrNoName       = errors.New("suite: benchmark name is required")
)

// Benchmark declares one measured target.
type Benchmark struct {
	Name     string
	Target   runner.Target
	Warmup   int64 // iterations per worker before measuring; 0 skips warmup
	Measure  int64 // iterations per worker; 0 means runner.DefaultTotal
	Threads  int
	Interval int64  // sampling interval; 0 derives it from the loop length
	Trace    bool   // write a trace line per sample
	Prefix   string // trace label of the measure phase; defaults to "measure"
}

func (b Benchmark) loop() int64 {
	if b.Measure > 0 {
		return b.Measure
	}
	return runner.DefaultTotal
}

func (b Benchmark) prefix(phase string) string {
	if !b.Trace {
		return ""
	}
	if phase == PhaseMeasure && b.Prefix != "" {
		return b.Prefix
	}
	return phase
}

// Observer is told about every phase before it runs, so live views can follow
// the active runner.
type Observer interface {
	Observe(b Benchmark, phase string, r *runner.Runner)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(b Benchmark, phase string, r *runner.Runner)

func (f ObserverFunc) Observe(b Benchmark, phase string, r *runner.Runner) { f(b, phase, r) }

type Options struct {
	Out      io.Writer // trace lines; nil discards them
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Observer Observer
}

// Entry is the outcome of one benchmark.
type Entry struct {
	Name    string          `json:"name" yaml:"name"`
	Threads int             `json:"threads" yaml:"threads"`
	Times   int64           `json:"times" yaml:"times"`
	Average string          `json:"average" yaml:"average"`
	Warmup  *runner.Summary `json:"warmup,omitempty" yaml:"warmup,omitempty"`
	Summary runner.Summary  `json:"summary" yaml:"summary"`
	Error   string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// Headline is the per-benchmark report line, e.g. "4 threads, 1000 times, Avg 12ms".
func (e Entry) Headline() string {
	return fmt.Sprintf("%d threads, %d times, Avg %s", e.Threads, e.Times, e.Average)
}

// Report collects the entries of one suite run.
type Report struct {
	ID        string         `json:"id" yaml:"id"`
	StartedAt time.Time      `json:"started_at" yaml:"started_at"`
	Container runner.Summary `json:"container" yaml:"container"`
	Entries   []Entry        `json:"entries" yaml:"entries"`
}

// Failures sums target failures over every measure phase.
func (r Report) Failures() int64 {
	var n int64
	for _, e := range r.Entries {
		n += e.Summary.Outcomes.Failures
	}
	return n
}

type Suite struct {
	opt       Options
	container *runner.Runner
}

func New(opt Options) *Suite {
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.Tracer == nil {
		opt.Tracer = noop.NewTracerProvider().Tracer("kipbench/suite")
	}
	return &Suite{
		opt:       opt,
		container: runner.New(runner.Options{Logger: opt.Logger}),
	}
}

// Run executes benchmarks in order. The container session is started before
// the first one and stopped after the last, even when ctx is cancelled midway;
// the partial report is returned with ctx.Err() in that case.
func (s *Suite) Run(ctx context.Context, benchmarks []Benchmark) (Report, error) {
	if len(benchmarks) == 0 {
		return Report{}, ErrNoBenchmarks
	}
	for i, b := range benchmarks {
		if b.Name == "" {
			return Report{}, fmt.Errorf("benchmark[%d]: %w", i, ErrNoName)
		}
		if b.Target == nil {
			return Report{}, fmt.Errorf("benchmark %q: %w", b.Name, runner.ErrNoTarget)
		}
	}

	report := Report{
		ID:        ulid.Make().String(),
		StartedAt: time.Now(),
		Entries:   make([]Entry, 0, len(benchmarks)),
	}

	ctx, span := s.opt.Tracer.Start(ctx, "kipbench suite", trace.WithAttributes(
		attribute.String("kipbench.report_id", report.ID),
		attribute.Int("kipbench.benchmarks", len(benchmarks)),
	))
	s.container.Start(int64(len(benchmarks)), 1)
	var runErr error
	for _, b := range benchmarks {
		entry, err := s.runOne(ctx, b)
		report.Entries = append(report.Entries, entry)
		if err != nil {
			runErr = err
			break
		}
	}
	s.container.Stop()
	report.Container = s.container.Summary(ContainerName)
	report.Container.Iterations = int64(len(report.Entries))
	tracing.EndSpan(span, runErr)

	return report, runErr
}

func (s *Suite) runOne(ctx context.Context, b Benchmark) (Entry, error) {
	logger := s.opt.Logger.With("benchmark", b.Name)
	r := runner.New(runner.Options{Out: s.opt.Out, Logger: logger}).Bind(b.Target)
	entry := Entry{
		Name:    b.Name,
		Threads: max(b.Threads, 1),
		Times:   b.loop(),
	}

	if b.Warmup > 0 {
		if err := s.phase(ctx, r, b, PhaseWarmup, b.Warmup); err != nil {
			entry.Error = err.Error()
			return entry, err
		}
		warm := r.Summary(b.Name + " " + PhaseWarmup)
		entry.Warmup = &warm
	}

	err := s.phase(ctx, r, b, PhaseMeasure, entry.Times)
	entry.Average = r.Average(entry.Times)
	entry.Summary = r.Summary(b.Name)
	if err != nil {
		entry.Error = err.Error()
		return entry, err
	}
	logger.Info("benchmark finished",
		"threads", entry.Threads,
		"times", entry.Times,
		"avg", entry.Average,
		"mean_kips", entry.Summary.GMeanKips,
		"failures", entry.Summary.Outcomes.Failures,
	)
	return entry, nil
}

func (s *Suite) phase(ctx context.Context, r *runner.Runner, b Benchmark, phase string, loop int64) error {
	if s.opt.Observer != nil {
		s.opt.Observer.Observe(b, phase, r)
	}
	ctx, span := tracing.StartPhaseSpan(ctx, s.opt.Tracer, b.Name, phase, loop, b.Threads)
	res, err := r.RunPrefix(ctx, b.prefix(phase), loop, b.Interval, b.Threads)
	tracing.EndSpan(span, err,
		attribute.Int64("kipbench.iterations", res.Iterations),
		attribute.Int64("kipbench.failures", res.Failures),
		attribute.Int64("kipbench.elapsed_ns", int64(res.Elapsed)),
	)
	if err != nil {
		return fmt.Errorf("%s %s: %w", b.Name, phase, err)
	}
	return nil
}
