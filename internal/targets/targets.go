package targets

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/torosent/kipbench/internal/runner"
)

// ErrUnknownTarget is returned by New for an unregistered name.
var ErrUnknownTarget = errors.New("unknown target")

const (
	Noop  = "noop"
	Norm  = "norm"
	Sleep = "sleep"
	HTTP  = "http"
)

// DefaultVectorSize is the vector length used by the norm target.
const DefaultVectorSize = 1000

// Options parameterise the built-in targets. Each target reads only its own fields.
type Options struct {
	VectorSize  int           // norm
	Sleep       time.Duration // sleep: base delay
	SleepJitter time.Duration // sleep: extra uniform delay in [0, jitter]
	URL         string        // http
	Timeout     time.Duration // http client timeout
	Client      *http.Client  // http; built from Timeout when nil
	Propagate   bool          // http: inject trace context headers
}

type factory func(Options) (runner.Target, error)

var registry = map[string]factory{
	Noop: func(Options) (runner.Target, error) { return NewNoop(), nil },
	Norm: func(o Options) (runner.Target, error) { return NewNorm(o.VectorSize), nil },
	Sleep: func(o Options) (runner.Target, error) {
		t, err := NewSleep(o.Sleep, o.SleepJitter)
		if err != nil {
			return nil, err
		}
		return t, nil
	},
	HTTP: func(o Options) (runner.Target, error) {
		client := o.Client
		if client == nil {
			client = NewClient(o.Timeout)
		}
		t, err := NewHTTP(client, o.URL)
		if err != nil {
			return nil, err
		}
		return t.WithPropagation(o.Propagate), nil
	},
}

// New builds the built-in target registered under name.
func New(name string, opts Options) (runner.Target, error) {
	f, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownTarget, name, strings.Join(Names(), ", "))
	}
	return f(opts)
}

// Names lists the registered targets in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
