package output

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torosent/kipbench/internal/runner"
	"github.com/torosent/kipbench/internal/suite"
)

func TestProgressLineWithoutPhase(t *testing.T) {
	p := NewProgressReporter(time.Hour, nil)
	defer p.Stop()

	_, ok := p.line()
	assert.False(t, ok)
}

func TestProgressLineReportsActivePhase(t *testing.T) {
	r := runner.New(runner.Options{}).BindFunc(func(context.Context) error { return nil })
	_, err := r.Run(context.Background(), 100, 2)
	require.NoError(t, err)

	p := NewProgressReporter(time.Hour, nil)
	p.Observe(suite.Benchmark{Name: "noop", Threads: 2}, suite.PhaseMeasure, r)

	line, ok := p.line()
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(line, "\rnoop measure | Iterations: "), line)
	assert.Contains(t, line, "/200 (")
	assert.Contains(t, line, "Failures: 0")
}

func TestProgressReporterWrites(t *testing.T) {
	r := runner.New(runner.Options{})
	r.Start(10, 1)

	var buf bytes.Buffer
	p := NewProgressReporter(10*time.Millisecond, &buf)
	p.Observe(suite.Benchmark{Name: "idle"}, suite.PhaseWarmup, r)
	p.Start()
	p.Start()
	time.Sleep(50 * time.Millisecond)
	p.Stop()
	p.Stop()

	assert.Contains(t, buf.String(), "idle warmup | Iterations: 0/10 (0%)")
}
