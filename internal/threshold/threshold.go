package threshold

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/torosent/kipbench/internal/runner"
)

const (
	MetricThroughput = "throughput"
	MetricFailures   = "failures"
	MetricIterations = "iterations"
)

// Threshold represents a performance assertion that can pass or fail.
type Threshold struct {
	Metric    string  // "throughput", "failures" or "iterations"
	Aggregate string  // e.g. "mean", "p99", "rate"
	Operator  string  // e.g. "<", "<=", ">", ">=", "=="
	Value     float64 // The threshold value to compare against
	Raw       string  // Original threshold string for display
}

// Result represents the outcome of evaluating a threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

// Evaluator evaluates thresholds against run summaries.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
	}
}

// Evaluate checks all thresholds against the provided summary.
func (e *Evaluator) Evaluate(s runner.Summary) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, e.evaluateOne(t, s))
	}
	return results
}

// AllPass reports whether every result passed.
func AllPass(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func (e *Evaluator) evaluateOne(t Threshold, s runner.Summary) Result {
	actual, err := extractMetricValue(t, s)
	if err != nil {
		return Result{
			Threshold: t,
			Actual:    0,
			Pass:      false,
			Message:   fmt.Sprintf("error: %v", err),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}

	message := fmt.Sprintf("%s %s: %.3f %s %.3f", status, t.Raw, actual, t.Operator, t.Value)
	return Result{
		Threshold: t,
		Actual:    actual,
		Pass:      pass,
		Message:   message,
	}
}

var pattern = regexp.MustCompile(`^(?:([a-z_]+):)?([a-z0-9_]+)\s*([<>=!]+)\s*([0-9.]+)$`)

// Parse parses a threshold string into a Threshold struct.
// Supported formats:
// - "throughput:mean >= 100"  (trimmed mean, K ops/s)
// - "mean >= 100"             (metric defaults to throughput)
// - "throughput:p99 > 50"     (sample quantile, K ops/s)
// - "failures:rate < 0.01"    (failed fraction of invocations)
// - "failure_rate < 0.01"     (shorthand for failures:rate)
// - "iterations:count >= 1000"
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := pattern.FindStringSubmatch(strings.ToLower(s))
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected format: [metric:]aggregate operator value, e.g., 'throughput:mean >= 100')", s)
	}

	metric, aggregate := matches[1], matches[2]
	operator := matches[3]
	valueStr := matches[4]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", valueStr, err)
	}

	if metric == "" {
		metric, aggregate = shorthand(aggregate)
	}

	if !slices.Contains(aggregates[metric], aggregate) {
		if _, ok := aggregates[metric]; !ok {
			return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: throughput, failures, iterations)", metric)
		}
		return Threshold{}, fmt.Errorf("unsupported aggregate %q for %s (supported: %s)", aggregate, metric, strings.Join(aggregates[metric], ", "))
	}

	if !slices.Contains(operators, operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Threshold{
		Metric:    metric,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses multiple threshold strings.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errors []string

	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errors = append(errors, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errors, "; "))
	}

	return result, nil
}

var aggregates = map[string][]string{
	MetricThroughput: {"min", "max", "avg", "mean", "gmean", "median", "sdev", "mips", "p50", "p90", "p99"},
	MetricFailures:   {"count", "rate"},
	MetricIterations: {"count"},
}

var operators = []string{"<", "<=", ">", ">=", "=="}

func shorthand(aggregate string) (metric, agg string) {
	switch aggregate {
	case "failures":
		return MetricFailures, "count"
	case "failure_rate":
		return MetricFailures, "rate"
	case "iterations":
		return MetricIterations, "count"
	default:
		return MetricThroughput, aggregate
	}
}

func extractMetricValue(t Threshold, s runner.Summary) (float64, error) {
	switch t.Metric {
	case MetricThroughput:
		return extractThroughput(t.Aggregate, s)
	case MetricFailures:
		return extractFailures(t.Aggregate, s)
	case MetricIterations:
		return float64(s.Iterations), nil
	default:
		return 0, fmt.Errorf("unknown metric: %s", t.Metric)
	}
}

func extractThroughput(aggregate string, s runner.Summary) (float64, error) {
	switch aggregate {
	case "min":
		return s.MinKips, nil
	case "max":
		return s.MaxKips, nil
	case "avg":
		return s.AvgKips, nil
	case "mean":
		return s.MeanKips, nil
	case "gmean":
		return s.GMeanKips, nil
	case "median":
		return s.MedianKips, nil
	case "sdev":
		return s.SdevKips, nil
	case "mips":
		return s.MIPS, nil
	case "p50":
		return s.Outcomes.P50Kips, nil
	case "p90":
		return s.Outcomes.P90Kips, nil
	case "p99":
		return s.Outcomes.P99Kips, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for throughput", aggregate)
	}
}

func extractFailures(aggregate string, s runner.Summary) (float64, error) {
	switch aggregate {
	case "count":
		return float64(s.Outcomes.Failures), nil
	case "rate":
		return s.Outcomes.FailureRate(), nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for failures (use 'count' or 'rate')", aggregate)
	}
}

func compareValues(actual float64, operator string, expected float64) bool {
	// Handle floating point comparison with small epsilon
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}
