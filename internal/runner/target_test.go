package runner_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torosent/kipbench/internal/runner"
)

type bench struct {
	calls int
}

func (b *bench) Work() { b.calls++ }

func (b *bench) Fail() error { return errors.New("nope") }

func (b *bench) Value() (int, error) { return b.calls, nil }

func (b *bench) Args(n int) { b.calls += n }

func TestMethodBinding(t *testing.T) {
	b := &bench{}

	work, err := runner.Method(b, "Work")
	require.NoError(t, err)
	require.NoError(t, work.Do(context.Background()))
	assert.Equal(t, 1, b.calls)

	fail, err := runner.Method(b, "Fail")
	require.NoError(t, err)
	assert.EqualError(t, fail.Do(context.Background()), "nope")

	value, err := runner.Method(b, "Value")
	require.NoError(t, err)
	assert.NoError(t, value.Do(context.Background()))
}

func TestMethodBindingErrors(t *testing.T) {
	_, err := runner.Method(nil, "Work")
	assert.ErrorIs(t, err, runner.ErrInvalidTarget)

	_, err = runner.Method(&bench{}, "Args")
	assert.ErrorIs(t, err, runner.ErrInvalidTarget)

	r := runner.New(runner.Options{})
	assert.ErrorIs(t, r.BindMethod(&bench{}, "missing"), runner.ErrInvalidTarget)
}

func TestSupplier(t *testing.T) {
	n := 0
	target := runner.Supplier(func() (int, error) {
		n++
		return n, nil
	})
	require.NoError(t, target.Do(context.Background()))
	assert.Equal(t, 1, n)
}

type recordingLogger struct {
	errs []error
}

func (l *recordingLogger) LogFailure(err error) { l.errs = append(l.errs, err) }

func TestWithLoggingReportsFailures(t *testing.T) {
	logger := &recordingLogger{}
	calls := 0
	target := runner.WithLogging(runner.TargetFunc(func(context.Context) error {
		calls++
		switch calls {
		case 2:
			return errors.New("second")
		case 3:
			panic("third")
		}
		return nil
	}), logger)

	for range 3 {
		_ = target.Do(context.Background())
	}
	require.Len(t, logger.errs, 2)
	assert.EqualError(t, logger.errs[0], "second")

	var pe *runner.PanicError
	require.ErrorAs(t, logger.errs[1], &pe)
	assert.Equal(t, "third", pe.Value)
}

func TestWithLoggingNilLogger(t *testing.T) {
	inner := runner.TargetFunc(func(context.Context) error { return nil })
	assert.NotNil(t, runner.WithLogging(inner, nil))
}

func TestSlogFailureLoggerThrottles(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	fl := runner.NewSlogFailureLogger(logger, time.Hour)

	for range 5 {
		fl.LogFailure(errors.New("down"))
	}
	fl.LogFailure(nil)

	assert.Equal(t, 1, strings.Count(buf.String(), "target failed"))
	assert.Contains(t, buf.String(), "error=down")
}

func TestSlogFailureLoggerUnthrottled(t *testing.T) {
	var buf bytes.Buffer
	fl := runner.NewSlogFailureLogger(slog.New(slog.NewTextHandler(&buf, nil)), 0)
	for range 3 {
		fl.LogFailure(errors.New("down"))
	}
	assert.Equal(t, 3, strings.Count(buf.String(), "target failed"))
}
