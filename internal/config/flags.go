package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers all benchmark flags on a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "kipbench run",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Benchmark flags
	flags.StringSlice("target", nil, "Built-in target to benchmark: noop, norm, sleep or http (repeatable or comma separated)")
	flags.Int64P("total", "n", DefaultTotal, "Iterations per measured run when --measure is not set")
	flags.Int64("interval", 0, "Sampling interval in iterations (0 derives max(loop/10, 1))")
	flags.IntP("threads", "c", 1, "Goroutines per run; each executes the full loop")
	flags.Int64("warmup", 0, "Warmup iterations before measuring (0 disables warmup)")
	flags.Int64("measure", 0, "Measured iterations per run")
	flags.Bool("trace", false, "Print one line per throughput sample")
	flags.String("prefix", "measure", "Label for trace lines of the measured run")

	// Target flags
	flags.Duration("sleep", 0, "Base delay of the sleep target")
	flags.Duration("sleep-jitter", 0, "Extra uniform delay of the sleep target")
	flags.String("url", "", "URL requested by the http target")
	flags.Duration("timeout", DefaultTimeout, "HTTP client timeout")
	flags.Int("vector-size", DefaultVectorSize, "Vector length of the norm target")

	// Output flags
	flags.StringP("format", "f", string(FormatText), "Report format: text, json, yaml or html")
	flags.StringP("output", "o", "", "Append the report to this file instead of stdout")
	flags.Bool("dashboard", false, "Show live terminal dashboard")
	flags.Bool("progress", false, "Print periodic progress to stderr")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.Bool("log-errors", false, "Log target failures (throttled)")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Threshold flags
	flags.StringSlice("threshold", nil, "Throughput thresholds (repeatable, e.g. 'mean >= 100')")

	// Tracing flags
	flags.String("tracing-endpoint", "", "OTLP endpoint for phase spans (falls back to OTEL_EXPORTER_OTLP_ENDPOINT)")
	flags.String("tracing-protocol", "grpc", "OTLP protocol: grpc or http")
	flags.Bool("tracing-insecure", false, "Disable TLS for the OTLP exporter")
	flags.Float64("tracing-sample-rate", 1.0, "Fraction of traces to sample")
	flags.String("tracing-service-name", "", "Service name reported with spans (default kipbench)")
	flags.Bool("tracing-propagate", false, "Inject W3C trace context into http target requests")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("target") {
		val, err := fs.GetStringSlice("target")
		if err != nil {
			return err
		}
		cfg.Targets = val
	}
	if fs.Changed("total") {
		val, err := fs.GetInt64("total")
		if err != nil {
			return err
		}
		cfg.Total = val
	}
	if fs.Changed("interval") {
		val, err := fs.GetInt64("interval")
		if err != nil {
			return err
		}
		cfg.Interval = val
	}
	if fs.Changed("threads") {
		val, err := fs.GetInt("threads")
		if err != nil {
			return err
		}
		cfg.Threads = val
	}
	if fs.Changed("warmup") {
		val, err := fs.GetInt64("warmup")
		if err != nil {
			return err
		}
		cfg.Warmup = val
	}
	if fs.Changed("measure") {
		val, err := fs.GetInt64("measure")
		if err != nil {
			return err
		}
		cfg.Measure = val
	}
	if fs.Changed("trace") {
		val, err := fs.GetBool("trace")
		if err != nil {
			return err
		}
		cfg.Trace = val
	}
	if fs.Changed("prefix") {
		val, err := fs.GetString("prefix")
		if err != nil {
			return err
		}
		cfg.Prefix = strings.TrimSpace(val)
	}
	if fs.Changed("sleep") {
		val, err := fs.GetDuration("sleep")
		if err != nil {
			return err
		}
		cfg.Sleep = val
	}
	if fs.Changed("sleep-jitter") {
		val, err := fs.GetDuration("sleep-jitter")
		if err != nil {
			return err
		}
		cfg.SleepJitter = val
	}
	if fs.Changed("url") {
		val, err := fs.GetString("url")
		if err != nil {
			return err
		}
		cfg.URL = val
	}
	if fs.Changed("timeout") {
		val, err := fs.GetDuration("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = val
	}
	if fs.Changed("vector-size") {
		val, err := fs.GetInt("vector-size")
		if err != nil {
			return err
		}
		cfg.VectorSize = val
	}
	if fs.Changed("format") {
		val, err := fs.GetString("format")
		if err != nil {
			return err
		}
		cfg.Format = Format(val)
	}
	if fs.Changed("output") {
		val, err := fs.GetString("output")
		if err != nil {
			return err
		}
		cfg.Output = val
	}
	if fs.Changed("dashboard") {
		val, err := fs.GetBool("dashboard")
		if err != nil {
			return err
		}
		cfg.Dashboard = val
	}
	if fs.Changed("progress") {
		val, err := fs.GetBool("progress")
		if err != nil {
			return err
		}
		cfg.Progress = val
	}
	if fs.Changed("log-level") {
		val, err := fs.GetString("log-level")
		if err != nil {
			return err
		}
		cfg.LogLevel = val
	}
	if fs.Changed("log-errors") {
		val, err := fs.GetBool("log-errors")
		if err != nil {
			return err
		}
		cfg.LogErrors = val
	}
	if fs.Changed("threshold") {
		val, err := fs.GetStringSlice("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = val
	}

	return applyTracingFlags(&cfg.Tracing, fs)
}

func applyTracingFlags(tc *TracingConfig, fs *pflag.FlagSet) error {
	if fs.Changed("tracing-endpoint") {
		val, err := fs.GetString("tracing-endpoint")
		if err != nil {
			return err
		}
		tc.Endpoint = strings.TrimSpace(val)
	}
	if fs.Changed("tracing-protocol") {
		val, err := fs.GetString("tracing-protocol")
		if err != nil {
			return err
		}
		tc.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("tracing-insecure") {
		val, err := fs.GetBool("tracing-insecure")
		if err != nil {
			return err
		}
		tc.Insecure = val
	}
	if fs.Changed("tracing-sample-rate") {
		val, err := fs.GetFloat64("tracing-sample-rate")
		if err != nil {
			return err
		}
		tc.SampleRate = val
	}
	if fs.Changed("tracing-service-name") {
		val, err := fs.GetString("tracing-service-name")
		if err != nil {
			return err
		}
		tc.ServiceName = strings.TrimSpace(val)
	}
	if fs.Changed("tracing-propagate") {
		val, err := fs.GetBool("tracing-propagate")
		if err != nil {
			return err
		}
		tc.Propagate = val
	}
	return nil
}
