package runner

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// FailureLogger logs failed target invocations.
type FailureLogger interface {
	LogFailure(err error)
}

// loggingTarget wraps a Target with failure logging.
type loggingTarget struct {
	inner  Target
	logger FailureLogger
}

// WithLogging wraps a Target to log failures. The error is still returned
// so the runner keeps counting it.
func WithLogging(t Target, logger FailureLogger) Target {
	if logger == nil {
		return t
	}
	return &loggingTarget{
		inner:  t,
		logger: logger,
	}
}

func (l *loggingTarget) Do(ctx context.Context) error {
	err := call(ctx, l.inner)
	if err != nil {
		l.logger.LogFailure(err)
	}
	return err
}

// SlogFailureLogger writes at most one failure per interval to a slog.Logger,
// reporting how many were suppressed in between.
type SlogFailureLogger struct {
	logger     *slog.Logger
	sometimes  rate.Sometimes
	suppressed atomic.Int64
}

// NewSlogFailureLogger returns a throttled FailureLogger. A non-positive
// interval logs every failure.
func NewSlogFailureLogger(logger *slog.Logger, interval time.Duration) *SlogFailureLogger {
	if logger == nil {
		logger = slog.Default()
	}
	l := &SlogFailureLogger{logger: logger}
	if interval > 0 {
		l.sometimes = rate.Sometimes{First: 1, Interval: interval}
	} else {
		l.sometimes = rate.Sometimes{Every: 1}
	}
	return l
}

func (l *SlogFailureLogger) LogFailure(err error) {
	if err == nil {
		return
	}
	logged := false
	l.sometimes.Do(func() {
		logged = true
		l.logger.Warn("target failed",
			slog.String("error", err.Error()),
			slog.Int64("suppressed", l.suppressed.Swap(0)),
		)
	})
	if !logged {
		l.suppressed.Add(1)
	}
}
