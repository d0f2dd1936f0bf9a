package dashboard

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/torosent/kipbench/internal/runner"
	"github.com/torosent/kipbench/internal/suite"
)

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		name    string
		done    int64
		total   int64
		threads int
		want    int
	}{
		{"empty", 0, 100, 1, 0},
		{"half", 50, 100, 1, 50},
		{"threads scale goal", 100, 100, 4, 25},
		{"terminating call capped", 101, 100, 1, 100},
		{"no total", 10, 0, 1, 0},
		{"zero threads means one", 30, 100, 0, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := progressPercent(tt.done, tt.total, tt.threads); got != tt.want {
				t.Errorf("progressPercent(%d, %d, %d) = %d, want %d", tt.done, tt.total, tt.threads, got, tt.want)
			}
		})
	}
}

func TestFormatSampleStats(t *testing.T) {
	if got := formatSampleStats(nil); got != "Waiting for samples..." {
		t.Errorf("formatSampleStats(nil) = %q", got)
	}

	got := formatSampleStats([]float64{2, 8})
	for _, want := range []string{"Samples: 2", "Min:    2.000K/s", "Max:    8.000K/s", "Avg:    5.000K/s", "Mean:   4.000K/s", "Sdev:   3.000"} {
		if !strings.Contains(got, want) {
			t.Errorf("formatSampleStats() missing %q in %q", want, got)
		}
	}
}

func TestFormatErrorRows(t *testing.T) {
	rows := formatErrorRows(nil)
	if len(rows) != 1 || !strings.Contains(rows[0], "No failures") {
		t.Errorf("formatErrorRows(nil) = %v", rows)
	}

	rows = formatErrorRows(map[string]int64{"Error": 2, "HTTP 503": 7, "Target panic": 2})
	want := []string{"[HTTP 503](fg:red) 7", "[Error](fg:red) 2", "[Target panic](fg:red) 2"}
	if strings.Join(rows, "|") != strings.Join(want, "|") {
		t.Errorf("formatErrorRows() = %v, want %v", rows, want)
	}

	many := make(map[string]int64)
	for _, c := range "abcdefghijkl" {
		many[string(c)] = 1
	}
	if rows := formatErrorRows(many); len(rows) != maxErrorRows {
		t.Errorf("formatErrorRows() len = %d, want %d", len(rows), maxErrorRows)
	}
}

func TestFormatRunParams(t *testing.T) {
	tests := []struct {
		name        string
		config      RunConfig
		contains    []string
		notContains []string
	}{
		{
			name:        "single thread defaults",
			config:      RunConfig{Targets: []string{"norm"}, Measure: 1000},
			contains:    []string{"Targets: norm", "Measure: 1000"},
			notContains: []string{"Threads", "Warmup", "Config"},
		},
		{
			name:     "full",
			config:   RunConfig{Targets: []string{"noop", "sleep"}, Threads: 4, Warmup: 10, Measure: 100, Interval: 5, ConfigFile: "bench.yaml"},
			contains: []string{"Targets: noop, sleep", "Threads: 4", "Warmup: 10", "Interval: 5", "Config: bench.yaml"},
		},
		{
			name:   "empty",
			config: RunConfig{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatRunParams(tt.config)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("formatRunParams() = %q, missing %q", got, want)
				}
			}
			for _, bad := range tt.notContains {
				if strings.Contains(got, bad) {
					t.Errorf("formatRunParams() = %q, should not contain %q", got, bad)
				}
			}
			if len(tt.contains) == 0 && got != "" {
				t.Errorf("formatRunParams() = %q, want empty", got)
			}
		})
	}
}

func TestTail(t *testing.T) {
	if got := tail([]float64{1, 2, 3}, 5); len(got) != 3 {
		t.Errorf("tail() len = %d, want 3", len(got))
	}
	if got := tail([]float64{1, 2, 3, 4}, 2); got[0] != 3 || got[1] != 4 {
		t.Errorf("tail() = %v, want [3 4]", got)
	}
}

func TestUpdateFollowsObservedPhases(t *testing.T) {
	d := newDashboard(RunConfig{Targets: []string{"flaky"}}, nil)

	d.update()
	if d.summaryPara.Text != "Initializing..." {
		t.Errorf("summary before any phase = %q", d.summaryPara.Text)
	}

	var calls int
	r := runner.New(runner.Options{}).BindFunc(func(context.Context) error {
		calls++
		if calls%5 == 0 {
			return errors.New("boom")
		}
		return nil
	})
	b := suite.Benchmark{Name: "flaky", Threads: 1}

	d.Observe(b, suite.PhaseWarmup, r)
	if _, err := r.Run(context.Background(), 100, 1); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	d.update()

	if !strings.Contains(d.summaryPara.Text, "Benchmark: flaky | Phase: warmup") {
		t.Errorf("summary = %q", d.summaryPara.Text)
	}
	if d.progressGauge.Percent != 100 {
		t.Errorf("gauge = %d%%, want 100%%", d.progressGauge.Percent)
	}
	if got := len(d.kipsSparkle.Sparklines[0].Data); got != 10 {
		t.Errorf("sparkline points = %d, want 10", got)
	}
	if !strings.Contains(d.statsPara.Text, "Samples: 10") {
		t.Errorf("stats = %q", d.statsPara.Text)
	}
	if len(d.errorList.Rows) != 1 || d.errorList.Rows[0] != "[Error](fg:red) 20" {
		t.Errorf("errors = %v", d.errorList.Rows)
	}

	d.Observe(b, suite.PhaseMeasure, r)
	d.update()

	if len(d.finishedList.Rows) != 1 || !strings.HasPrefix(d.finishedList.Rows[0], "[flaky warmup](fg:cyan) | mean ") {
		t.Errorf("finished = %v", d.finishedList.Rows)
	}
	if !strings.Contains(d.finishedList.Rows[0], "| 10 samples |") {
		t.Errorf("finished row = %q, want 10 samples", d.finishedList.Rows[0])
	}
}
