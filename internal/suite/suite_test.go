package suite_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/torosent/kipbench/internal/runner"
	"github.com/torosent/kipbench/internal/suite"
)

type counter struct{ n atomic.Int64 }

func (c *counter) Do(context.Context) error {
	c.n.Add(1)
	return nil
}

func TestRunExecutesWarmupAndMeasure(t *testing.T) {
	var out bytes.Buffer
	var phases []string
	s := suite.New(suite.Options{
		Out: &out,
		Observer: suite.ObserverFunc(func(b suite.Benchmark, phase string, _ *runner.Runner) {
			phases = append(phases, b.Name+"/"+phase)
		}),
	})

	a, b := &counter{}, &counter{}
	report, err := s.Run(context.Background(), []suite.Benchmark{
		{Name: "a", Target: a, Warmup: 100, Measure: 1000, Trace: true},
		{Name: "b", Target: b, Measure: 200, Threads: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1100), a.n.Load())
	assert.Equal(t, int64(400), b.n.Load())
	assert.Equal(t, []string{"a/warmup", "a/measure", "b/measure"}, phases)

	require.Len(t, report.Entries, 2)
	assert.NotEmpty(t, report.ID)

	first := report.Entries[0]
	require.NotNil(t, first.Warmup)
	assert.Equal(t, int64(100), first.Warmup.Iterations)
	assert.Equal(t, int64(1000), first.Summary.Iterations)
	assert.Equal(t, "a", first.Summary.Name)
	assert.True(t, strings.HasPrefix(first.Headline(), "1 threads, 1000 times, Avg "), first.Headline())

	second := report.Entries[1]
	assert.Nil(t, second.Warmup)
	assert.Equal(t, 2, second.Threads)
	assert.Equal(t, int64(400), second.Summary.Outcomes.Invocations)

	assert.Equal(t, suite.ContainerName, report.Container.Name)
	assert.Equal(t, int64(2), report.Container.Iterations)

	// Only the traced benchmark writes sample lines.
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 20)
	assert.True(t, strings.HasPrefix(lines[0], "warmup[0000010]\t"), lines[0])
	assert.True(t, strings.HasPrefix(lines[10], "measure[0000100]\t"), lines[10])
}

func TestRunCustomMeasurePrefix(t *testing.T) {
	var out bytes.Buffer
	_, err := suite.New(suite.Options{Out: &out}).Run(context.Background(), []suite.Benchmark{
		{Name: "p", Target: &counter{}, Measure: 10, Trace: true, Prefix: "norm"},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.String(), "norm[0000001]\t"), out.String())
}

func TestRunCountsFailures(t *testing.T) {
	var calls atomic.Int64
	failing := runner.TargetFunc(func(context.Context) error {
		if calls.Add(1)%2 == 0 {
			return errors.New("odd one out")
		}
		return nil
	})

	report, err := suite.New(suite.Options{}).Run(context.Background(), []suite.Benchmark{
		{Name: "flaky", Target: failing, Measure: 100},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(50), report.Failures())
	assert.Equal(t, int64(100), report.Entries[0].Summary.Iterations)
}

func TestRunValidatesBenchmarks(t *testing.T) {
	s := suite.New(suite.Options{})

	_, err := s.Run(context.Background(), nil)
	assert.ErrorIs(t, err, suite.ErrNoBenchmarks)

	_, err = s.Run(context.Background(), []suite.Benchmark{{Target: &counter{}}})
	assert.ErrorIs(t, err, suite.ErrNoName)

	_, err = s.Run(context.Background(), []suite.Benchmark{{Name: "empty"}})
	assert.ErrorIs(t, err, runner.ErrNoTarget)
}

func TestRunStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int64
	stopper := runner.TargetFunc(func(context.Context) error {
		if calls.Add(1) == 10 {
			cancel()
		}
		return nil
	})
	later := &counter{}

	report, err := suite.New(suite.Options{}).Run(ctx, []suite.Benchmark{
		{Name: "stopper", Target: stopper, Measure: 1000},
		{Name: "later", Target: later, Measure: 1000},
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, report.Entries, 1)
	assert.Contains(t, report.Entries[0].Error, "stopper measure")
	assert.Equal(t, int64(10), report.Entries[0].Summary.Iterations)
	assert.Zero(t, later.n.Load())
	assert.Equal(t, suite.ContainerName, report.Container.Name)
}

func TestRunEmitsPhaseSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, err := suite.New(suite.Options{Tracer: tp.Tracer("test")}).Run(context.Background(), []suite.Benchmark{
		{Name: "norm", Target: &counter{}, Warmup: 10, Measure: 10},
	})
	require.NoError(t, err)

	var names []string
	for _, s := range exporter.GetSpans() {
		names = append(names, s.Name)
	}
	assert.ElementsMatch(t, []string{"norm warmup", "norm measure", "kipbench suite"}, names)
}
