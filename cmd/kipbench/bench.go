package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/torosent/kipbench/internal/config"
	"github.com/torosent/kipbench/internal/dashboard"
	"github.com/torosent/kipbench/internal/output"
	"github.com/torosent/kipbench/internal/runner"
	"github.com/torosent/kipbench/internal/suite"
	"github.com/torosent/kipbench/internal/targets"
	"github.com/torosent/kipbench/internal/threshold"
	"github.com/torosent/kipbench/internal/tracing"
)

const (
	progressInterval   = time.Second
	failureLogInterval = time.Second
	flushTimeout       = 10 * time.Second
	shutdownTimeout    = 5 * time.Second
)

var (
	errThresholdsFailed = errors.New("thresholds failed")
	errTargetFailures   = errors.New("target invocations failed")
)

func runBench(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	logOut := stderr
	if cfg.Dashboard {
		logOut = io.Discard
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tp, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer done()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()
	if endpoint := tp.Endpoint(); endpoint != "" {
		logger.Debug("exporting benchmark spans", "endpoint", endpoint, "protocol", cfg.Tracing.Protocol)
	}

	benchmarks, err := buildBenchmarks(cfg, tp.ShouldPropagate(), logger)
	if err != nil {
		return err
	}

	opts := suite.Options{
		Out:    traceWriter(cfg, stdout, stderr),
		Logger: logger,
		Tracer: tp.Tracer(),
	}

	if cfg.Dashboard {
		dash, err := dashboard.New(dashboard.RunConfig{
			Targets:    cfg.Targets,
			Threads:    cfg.Threads,
			Warmup:     cfg.Warmup,
			Measure:    cfg.MeasureLoop(),
			Interval:   cfg.Interval,
			ConfigFile: cfg.ConfigFile,
		}, cancel)
		if err != nil {
			return err
		}
		dash.Start()
		opts.Observer = dash
		defer dash.Stop()
	} else if cfg.Progress {
		progress := output.NewProgressReporter(progressInterval, stderr)
		progress.Start()
		opts.Observer = progress
		defer func() {
			progress.Stop()
			fmt.Fprintln(stderr)
		}()
	}

	report, runErr := suite.New(opts).Run(ctx, benchmarks)

	var (
		checks  []output.Check
		results []threshold.Result
	)
	evaluator := threshold.NewEvaluator(thresholds)
	for _, e := range report.Entries {
		for _, r := range evaluator.Evaluate(e.Summary) {
			checks = append(checks, output.Check{Benchmark: e.Name, Result: r})
			results = append(results, r)
		}
	}

	if err := writeReport(ctx, cfg, stdout, report, checks); err != nil {
		return err
	}

	switch {
	case runErr != nil:
		return fmt.Errorf("benchmark interrupted: %w", runErr)
	case !threshold.AllPass(results):
		return fmt.Errorf("%w: %d of %d", errThresholdsFailed, countFailed(results), len(results))
	case report.Failures() > 0:
		return fmt.Errorf("%w: %d", errTargetFailures, report.Failures())
	}
	return nil
}

func buildBenchmarks(cfg *config.Config, propagate bool, logger *slog.Logger) ([]suite.Benchmark, error) {
	opts := targets.Options{
		VectorSize:  cfg.VectorSize,
		Sleep:       cfg.Sleep,
		SleepJitter: cfg.SleepJitter,
		URL:         cfg.URL,
		Timeout:     cfg.Timeout,
		Propagate:   propagate,
	}

	var failureLogger runner.FailureLogger
	if cfg.LogErrors {
		failureLogger = runner.NewSlogFailureLogger(logger, failureLogInterval)
	}

	benchmarks := make([]suite.Benchmark, 0, len(cfg.Targets))
	for _, name := range cfg.Targets {
		t, err := targets.New(name, opts)
		if err != nil {
			return nil, err
		}
		if failureLogger != nil {
			t = runner.WithLogging(t, failureLogger)
		}
		benchmarks = append(benchmarks, suite.Benchmark{
			Name:     name,
			Target:   t,
			Warmup:   cfg.Warmup,
			Measure:  cfg.MeasureLoop(),
			Threads:  cfg.Threads,
			Interval: cfg.Interval,
			Trace:    cfg.Trace,
			Prefix:   cfg.Prefix,
		})
	}
	return benchmarks, nil
}

// traceWriter keeps trace lines off stdout when stdout carries a structured
// report, and off the terminal entirely while the dashboard owns it.
func traceWriter(cfg *config.Config, stdout, stderr io.Writer) io.Writer {
	switch {
	case cfg.Dashboard:
		return io.Discard
	case cfg.Output == "" && cfg.Format != config.FormatText && cfg.Format != "":
		return stderr
	default:
		return stdout
	}
}

func writeReport(ctx context.Context, cfg *config.Config, stdout io.Writer, report suite.Report, checks []output.Check) error {
	if cfg.Output == "" {
		return output.Write(stdout, cfg.Format, report, checks)
	}

	sink := output.NewFileSink(cfg.Output)
	if err := output.Write(sink, cfg.Format, report, checks); err != nil {
		return err
	}
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
	defer cancel()
	if err := sink.Flush(flushCtx); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func countFailed(results []threshold.Result) int {
	n := 0
	for _, r := range results {
		if !r.Pass {
			n++
		}
	}
	return n
}
