package output

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/torosent/kipbench/internal/config"
	"github.com/torosent/kipbench/internal/suite"
	"github.com/torosent/kipbench/internal/threshold"
)

// Check is a threshold result attributed to one benchmark.
type Check struct {
	Benchmark string
	threshold.Result
}

// ThresholdSummary is the serialisable form of a set of checks.
type ThresholdSummary struct {
	Total   int                   `json:"total" yaml:"total"`
	Passed  int                   `json:"passed" yaml:"passed"`
	Failed  int                   `json:"failed" yaml:"failed"`
	Results []ThresholdResultJSON `json:"results" yaml:"results"`
}

type ThresholdResultJSON struct {
	Benchmark string  `json:"benchmark" yaml:"benchmark"`
	Threshold string  `json:"threshold" yaml:"threshold"`
	Metric    string  `json:"metric" yaml:"metric"`
	Aggregate string  `json:"aggregate" yaml:"aggregate"`
	Operator  string  `json:"operator" yaml:"operator"`
	Expected  float64 `json:"expected" yaml:"expected"`
	Actual    float64 `json:"actual" yaml:"actual"`
	Pass      bool    `json:"pass" yaml:"pass"`
}

// summarizeChecks returns nil when there is nothing to report.
func summarizeChecks(checks []Check) *ThresholdSummary {
	if len(checks) == 0 {
		return nil
	}
	s := &ThresholdSummary{
		Total:   len(checks),
		Results: make([]ThresholdResultJSON, len(checks)),
	}
	for i, c := range checks {
		s.Results[i] = ThresholdResultJSON{
			Benchmark: c.Benchmark,
			Threshold: c.Threshold.Raw,
			Metric:    c.Threshold.Metric,
			Aggregate: c.Threshold.Aggregate,
			Operator:  c.Threshold.Operator,
			Expected:  c.Threshold.Value,
			Actual:    c.Actual,
			Pass:      c.Pass,
		}
		if c.Pass {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}

type document struct {
	suite.Report `yaml:",inline"`
	Thresholds   *ThresholdSummary `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
}

// PrintReport outputs a human-readable report: per benchmark a headline and
// its metric line, then the container line.
func PrintReport(w io.Writer, rep suite.Report, checks []Check) {
	fmt.Fprintf(w, "\n--- Benchmark Results (%s) ---\n", rep.ID)
	for _, e := range rep.Entries {
		fmt.Fprintf(w, "%s: %s\n", e.Name, e.Headline())
		if e.Warmup != nil {
			fmt.Fprintln(w, "  "+e.Warmup.String())
		}
		fmt.Fprintln(w, "  "+e.Summary.String())
		if o := e.Summary.Outcomes; o.Failures > 0 {
			fmt.Fprintf(w, "  Failures: %d of %d (%.2f%%)\n", o.Failures, o.Invocations, o.FailureRate()*100)
			writeErrors(w, o.Errors, "    ")
		}
		if e.Error != "" {
			fmt.Fprintf(w, "  Aborted: %s\n", e.Error)
		}
	}
	fmt.Fprintln(w, rep.Container.String())

	if len(checks) > 0 {
		fmt.Fprintln(w, "\nThresholds:")
		for _, c := range checks {
			fmt.Fprintf(w, "  %s %s\n", c.Benchmark, c.Message)
		}
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, rep suite.Report, checks []Check) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(document{Report: rep, Thresholds: summarizeChecks(checks)})
}

// PrintYAMLReport outputs a YAML-formatted report.
func PrintYAMLReport(w io.Writer, rep suite.Report, checks []Check) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(document{Report: rep, Thresholds: summarizeChecks(checks)}); err != nil {
		return err
	}
	return enc.Close()
}

// Write renders rep in the given format.
func Write(w io.Writer, format config.Format, rep suite.Report, checks []Check) error {
	switch format {
	case config.FormatJSON:
		return PrintJSONReport(w, rep, checks)
	case config.FormatYAML:
		return PrintYAMLReport(w, rep, checks)
	case config.FormatHTML:
		return GenerateHTMLReport(w, rep, checks)
	case config.FormatText, "":
		PrintReport(w, rep, checks)
		return nil
	default:
		return fmt.Errorf("unsupported report format %q", format)
	}
}

func writeErrors(w io.Writer, errs map[string]int64, indent string) {
	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		if c := cmp.Compare(errs[b], errs[a]); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	for _, name := range names {
		fmt.Fprintf(w, "%s%s: %d\n", indent, name, errs[name])
	}
}
