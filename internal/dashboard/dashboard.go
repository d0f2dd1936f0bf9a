package dashboard

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/torosent/kipbench/internal/runner"
	"github.com/torosent/kipbench/internal/stats"
	"github.com/torosent/kipbench/internal/suite"
)

const (
	refreshInterval = 500 * time.Millisecond
	maxSparkPoints  = 100
	maxErrorRows    = 10
)

// RunConfig holds suite parameters for display.
type RunConfig struct {
	Targets    []string
	Threads    int
	Warmup     int64
	Measure    int64
	Interval   int64
	ConfigFile string
}

type phaseState struct {
	bench  suite.Benchmark
	phase  string
	runner *runner.Runner
	since  time.Time
}

// Dashboard renders a live terminal UI following the active benchmark phase.
// It implements suite.Observer.
type Dashboard struct {
	current      atomic.Pointer[phaseState]
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownFunc func()
	wg           sync.WaitGroup
	mu           sync.Mutex

	// Widgets
	grid          *ui.Grid
	summaryPara   *widgets.Paragraph
	progressGauge *widgets.Gauge
	statsPara     *widgets.Paragraph
	kipsSparkle   *widgets.SparklineGroup
	errorList     *widgets.List
	finishedList  *widgets.List

	finished  []string
	startTime time.Time
	config    RunConfig
}

var _ suite.Observer = (*Dashboard)(nil)

// New initialises the terminal and creates a Dashboard. shutdownFunc is
// called when the user presses q or Ctrl-C.
func New(cfg RunConfig, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	d := newDashboard(cfg, shutdownFunc)
	d.setupGrid()
	return d, nil
}

func newDashboard(cfg RunConfig, shutdownFunc func()) *Dashboard {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dashboard{
		ctx:          ctx,
		cancel:       cancel,
		shutdownFunc: shutdownFunc,
		startTime:    time.Now(),
		config:       cfg,
	}
	d.initWidgets()
	return d
}

// Observe switches the dashboard to a new phase. The previous phase has
// finished by now, so its samples are summarised before the runner restarts.
func (d *Dashboard) Observe(b suite.Benchmark, phase string, r *runner.Runner) {
	prev := d.current.Swap(&phaseState{bench: b, phase: phase, runner: r, since: time.Now()})
	if prev == nil {
		return
	}
	row := finishedRow(prev)
	d.mu.Lock()
	d.finished = append(d.finished, row)
	d.mu.Unlock()
}

func (d *Dashboard) initWidgets() {
	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Suite"
	d.summaryPara.Text = "Initializing..."
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan

	d.progressGauge = widgets.NewGauge()
	d.progressGauge.Title = "Progress"
	d.progressGauge.BarColor = ui.ColorBlue
	d.progressGauge.BorderStyle.Fg = ui.ColorCyan
	d.progressGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	d.statsPara = widgets.NewParagraph()
	d.statsPara.Title = "Throughput Stats"
	d.statsPara.Text = "Waiting for samples..."
	d.statsPara.BorderStyle.Fg = ui.ColorCyan

	spark := widgets.NewSparkline()
	spark.Title = "K/s"
	spark.LineColor = ui.ColorGreen
	spark.Data = []float64{0}
	d.kipsSparkle = widgets.NewSparklineGroup(spark)
	d.kipsSparkle.Title = "Throughput Samples"
	d.kipsSparkle.BorderStyle.Fg = ui.ColorCyan

	d.errorList = widgets.NewList()
	d.errorList.Title = "Failures"
	d.errorList.Rows = []string{"[No failures](fg:green)"}
	d.errorList.TextStyle = ui.NewStyle(ui.ColorYellow)
	d.errorList.BorderStyle.Fg = ui.ColorCyan

	d.finishedList = widgets.NewList()
	d.finishedList.Title = "Finished Phases"
	d.finishedList.Rows = []string{"None yet"}
	d.finishedList.TextStyle = ui.NewStyle(ui.ColorCyan)
	d.finishedList.BorderStyle.Fg = ui.ColorCyan
}

func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)

	d.grid.Set(
		ui.NewRow(0.16,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.14,
			ui.NewCol(1.0, d.progressGauge),
		),
		ui.NewRow(0.36,
			ui.NewCol(0.65, d.kipsSparkle),
			ui.NewCol(0.35, d.statsPara),
		),
		ui.NewRow(0.34,
			ui.NewCol(0.5, d.finishedList),
			ui.NewCol(0.5, d.errorList),
		),
	)
}

// Start begins the dashboard update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop stops the dashboard and restores the terminal.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	ui.Close()
	// Give terminal time to restore
	time.Sleep(100 * time.Millisecond)
}

func (d *Dashboard) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()

	d.render()

	for {
		select {
		case <-d.ctx.Done():
			for len(uiEvents) > 0 {
				<-uiEvents
			}
			return
		case e := <-uiEvents:
			select {
			case <-d.ctx.Done():
				return
			default:
			}

			switch e.ID {
			case "q", "<C-c>":
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
				// Stop cancels the loop once the suite has unwound.
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				ui.Clear()
				d.render()
			}
		case <-ticker.C:
			d.update()
			d.render()
		}
	}
}

// update refreshes all widget data from the active runner.
func (d *Dashboard) update() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.finished) > 0 {
		d.finishedList.Rows = d.finished
	}
	st := d.current.Load()
	if st == nil {
		return
	}

	done, total := st.runner.Progress()
	threads := max(st.bench.Threads, 1)
	d.progressGauge.Percent = progressPercent(done, total, threads)
	d.progressGauge.Label = fmt.Sprintf("%d / %d", min(done, total*int64(threads)), total*int64(threads))

	d.summaryPara.Text = fmt.Sprintf(
		"Benchmark: %s | Phase: %s | Elapsed: %s\n%s",
		st.bench.Name,
		st.phase,
		time.Since(d.startTime).Round(time.Second),
		formatRunParams(d.config),
	)

	samples := st.runner.Samples()
	if len(samples) > 0 {
		d.kipsSparkle.Sparklines[0].Data = tail(samples, maxSparkPoints)
		d.kipsSparkle.Title = fmt.Sprintf("Throughput Samples | Last: %.3fK/s", samples[len(samples)-1])
	}
	d.statsPara.Text = formatSampleStats(samples)
	d.errorList.Rows = formatErrorRows(st.runner.Collector().Stats().Errors)
}

func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()

	ui.Render(d.grid)
}

func finishedRow(st *phaseState) string {
	acc := stats.Load(st.runner.Samples())
	return fmt.Sprintf("[%s %s](fg:cyan) | mean %.3fK/s | %d samples | %s",
		st.bench.Name, st.phase, acc.GeometricMean(), acc.Count(), time.Since(st.since).Round(time.Millisecond))
}

func progressPercent(done, total int64, threads int) int {
	goal := total * int64(max(threads, 1))
	if goal <= 0 {
		return 0
	}
	return int(min(done*100/goal, 100))
}

func formatSampleStats(samples []float64) string {
	if len(samples) == 0 {
		return "Waiting for samples..."
	}
	acc := stats.Load(samples)
	return fmt.Sprintf(
		"Samples: %d\nMin:    %.3fK/s\nMax:    %.3fK/s\nAvg:    %.3fK/s\nMean:   %.3fK/s\nMedian: %.3fK/s\nSdev:   %.3f",
		acc.Count(),
		acc.Min(),
		acc.Max(),
		acc.Average(),
		acc.GeometricMean(),
		acc.Median(),
		acc.Sdev(),
	)
}

func formatErrorRows(errs map[string]int64) []string {
	if len(errs) == 0 {
		return []string{"[No failures](fg:green)"}
	}
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
	if len(names) > maxErrorRows {
		names = names[:maxErrorRows]
	}
	rows := make([]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, fmt.Sprintf("[%s](fg:red) %d", name, errs[name]))
	}
	return rows
}

func formatRunParams(cfg RunConfig) string {
	var parts []string

	if len(cfg.Targets) > 0 {
		parts = append(parts, fmt.Sprintf("Targets: %s", strings.Join(cfg.Targets, ", ")))
	}
	if cfg.Threads > 1 {
		parts = append(parts, fmt.Sprintf("Threads: %d", cfg.Threads))
	}
	if cfg.Warmup > 0 {
		parts = append(parts, fmt.Sprintf("Warmup: %d", cfg.Warmup))
	}
	if cfg.Measure > 0 {
		parts = append(parts, fmt.Sprintf("Measure: %d", cfg.Measure))
	}
	if cfg.Interval > 0 {
		parts = append(parts, fmt.Sprintf("Interval: %d", cfg.Interval))
	}
	if cfg.ConfigFile != "" {
		parts = append(parts, fmt.Sprintf("Config: %s", cfg.ConfigFile))
	}

	return strings.Join(parts, " | ")
}

func tail(values []float64, n int) []float64 {
	if len(values) > n {
		return values[len(values)-n:]
	}
	return values
}
