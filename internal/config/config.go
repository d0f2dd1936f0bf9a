package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Format selects how reports are rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHTML Format = "html"
)

const (
	DefaultTotal      int64 = 2_000_000
	DefaultTimeout          = 30 * time.Second
	DefaultVectorSize       = 1000
)

type Config struct {
	Targets     []string      `mapstructure:"target"`
	Total       int64         `mapstructure:"total"`
	Interval    int64         `mapstructure:"interval"`
	Threads     int           `mapstructure:"threads"`
	Warmup      int64         `mapstructure:"warmup"`
	Measure     int64         `mapstructure:"measure"`
	Trace       bool          `mapstructure:"trace"`
	Prefix      string        `mapstructure:"prefix"`
	Format      Format        `mapstructure:"format"`
	Output      string        `mapstructure:"output"`
	Dashboard   bool          `mapstructure:"dashboard"`
	Progress    bool          `mapstructure:"progress"`
	Thresholds  []string      `mapstructure:"thresholds"`
	LogLevel    string        `mapstructure:"log_level"`
	LogErrors   bool          `mapstructure:"log_errors"`
	Sleep       time.Duration `mapstructure:"sleep"`
	SleepJitter time.Duration `mapstructure:"sleep_jitter"`
	URL         string        `mapstructure:"url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	VectorSize  int           `mapstructure:"vector_size"`
	Tracing     TracingConfig `mapstructure:"tracing"`
	ConfigFile  string        `mapstructure:"-"`
}

// TracingConfig configures OpenTelemetry export of benchmark phase spans.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" (default) or "http"
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	ServiceName string  `mapstructure:"service_name"`
	Propagate   bool    `mapstructure:"propagate"` // inject traceparent into http target requests
}

// Enabled reports whether an exporter endpoint is configured, either here or
// through OTEL_EXPORTER_OTLP_ENDPOINT, or propagation was requested.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != "" || os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" || t.Propagate
}

// ShouldPropagate reports whether W3C trace context should reach the target.
func (t TracingConfig) ShouldPropagate() bool {
	return t.Propagate
}

// MeasureLoop returns the measured iteration count: Measure, or Total when unset.
func (c Config) MeasureLoop() int64 {
	if c.Measure > 0 {
		return c.Measure
	}
	return c.Total
}

// SlogLevel maps LogLevel onto a slog.Level. Unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if len(c.Targets) == 0 {
		issues = append(issues, "target is required (use --help for usage information)")
	}
	for i, name := range c.Targets {
		if strings.TrimSpace(name) == "" {
			issues = append(issues, fmt.Sprintf("target[%d]: name is required", i))
		}
		if strings.EqualFold(strings.TrimSpace(name), "http") && strings.TrimSpace(c.URL) == "" {
			issues = append(issues, "url is required for the http target")
		}
	}

	if c.Total < 0 {
		issues = append(issues, "total must be >= 0")
	}
	if c.Interval < 0 {
		issues = append(issues, "interval must be >= 0")
	}
	if c.Threads < 0 {
		issues = append(issues, "threads must be >= 0")
	}
	if c.Warmup < 0 {
		issues = append(issues, "warmup must be >= 0")
	}
	if c.Measure < 0 {
		issues = append(issues, "measure must be >= 0")
	}
	if c.MeasureLoop() <= 0 {
		issues = append(issues, "measure or total must be > 0")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be >= 0")
	}
	if c.Sleep < 0 || c.SleepJitter < 0 {
		issues = append(issues, "sleep durations must be >= 0")
	}
	if c.VectorSize < 0 {
		issues = append(issues, "vector_size must be >= 0")
	}

	switch c.Format {
	case "", FormatText, FormatJSON, FormatYAML:
	case FormatHTML:
		if strings.TrimSpace(c.Output) == "" {
			issues = append(issues, "html format requires an output file")
		}
	default:
		issues = append(issues, fmt.Sprintf("format must be one of text, json, yaml, html (got %q)", c.Format))
	}

	if c.Dashboard && c.Format != "" && c.Format != FormatText && strings.TrimSpace(c.Output) == "" {
		issues = append(issues, "dashboard and structured stdout output are mutually exclusive")
	}
	if c.Dashboard && c.Progress {
		issues = append(issues, "dashboard and progress are mutually exclusive")
	}

	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		issues = append(issues, fmt.Sprintf("log_level must be debug, info, warn or error (got %q)", c.LogLevel))
	}

	issues = append(issues, validateTracingConfig(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}

	return nil
}

func validateTracingConfig(t TracingConfig) []string {
	var issues []string
	switch strings.ToLower(t.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing.protocol must be grpc or http (got %q)", t.Protocol))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, fmt.Sprintf("tracing.sample_rate must be between 0.0 and 1.0 (got %g)", t.SampleRate))
	}
	return issues
}
