package runner

import (
	"io"
	"log/slog"

	"github.com/torosent/kipbench/internal/metrics"
)

const (
	// DefaultTotal is the iteration count used by Start when none is given.
	DefaultTotal int64 = 2_000_000
	// DefaultInterval is the sampling interval used by Start when none is given.
	DefaultInterval int64 = 100_000
	// DefaultPrefix labels trace lines written by Trace.
	DefaultPrefix = "trace"
)

// Options configure a Runner.
type Options struct {
	Out       io.Writer          // sink for trace lines and metric output (nil disables tracing)
	Logger    *slog.Logger       // diagnostics; defaults to slog.Default()
	Collector *metrics.Collector // outcome and sample tally; created when nil
}

func (o *Options) normalize() {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Collector == nil {
		o.Collector = metrics.NewCollector()
	}
}

// intervalFor derives a sampling interval from a loop length.
func intervalFor(loop int64) int64 {
	return max(loop/10, 1)
}
