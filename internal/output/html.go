package output

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/torosent/kipbench/internal/runner"
	"github.com/torosent/kipbench/internal/suite"
)

// HTMLReportData contains all data needed for the HTML report template.
type HTMLReportData struct {
	GeneratedAt      string
	Report           suite.Report
	ThresholdSummary *ThresholdSummary
	SamplesJSON      string
}

type chartSeries struct {
	Name    string    `json:"name"`
	Samples []float64 `json:"samples"`
}

// GenerateHTMLReport generates a standalone HTML report with a throughput
// chart per benchmark.
func GenerateHTMLReport(w io.Writer, rep suite.Report, checks []Check) error {
	series := make([]chartSeries, 0, len(rep.Entries))
	for _, e := range rep.Entries {
		if len(e.Summary.Samples) > 1 {
			series = append(series, chartSeries{Name: e.Name, Samples: e.Summary.Samples})
		}
	}

	samplesJSON := ""
	if len(series) > 0 {
		raw, err := json.Marshal(series)
		if err != nil {
			return fmt.Errorf("failed to marshal samples: %w", err)
		}
		samplesJSON = string(raw)
	}

	data := HTMLReportData{
		GeneratedAt:      time.Now().Format(time.RFC3339),
		Report:           rep,
		ThresholdSummary: summarizeChecks(checks),
		SamplesJSON:      samplesJSON,
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatElapsed": runner.FormatElapsed,
		"formatFloat": func(f float64) string {
			return fmt.Sprintf("%.3f", f)
		},
		"formatPercent": func(part, total int64) string {
			if total == 0 {
				return "0.0"
			}
			return fmt.Sprintf("%.1f", (float64(part)/float64(total))*100)
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>kipbench Report</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f4f6f8;
            color: #1f2933;
            line-height: 1.6;
            padding: 20px;
        }
        .container {
            max-width: 1400px;
            margin: 0 auto;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0,0,0,0.1);
            overflow: hidden;
        }
        header { background: #243b53; color: white; padding: 30px 40px; }
        header h1 { font-size: 2rem; margin-bottom: 10px; }
        header .meta { opacity: 0.85; font-size: 0.9rem; }
        .content { padding: 40px; }
        .grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(250px, 1fr));
            gap: 20px;
            margin-bottom: 40px;
        }
        .card { background: #f8f9fa; border-radius: 8px; padding: 20px; border-left: 4px solid #486581; }
        .card h3 { font-size: 0.9rem; color: #627d98; text-transform: uppercase; margin-bottom: 10px; }
        .card .value { font-size: 1.6rem; font-weight: bold; }
        .card .subvalue { font-size: 0.85rem; color: #627d98; margin-top: 5px; }
        .card.error { border-left-color: #ef4444; }
        .section { margin-bottom: 40px; }
        .section h2 { font-size: 1.5rem; margin-bottom: 20px; padding-bottom: 10px; border-bottom: 2px solid #e5e7eb; }
        .chart { width: 100%; height: 300px; margin-bottom: 30px; }
        table { width: 100%; border-collapse: collapse; }
        th, td { text-align: left; padding: 10px; border-bottom: 1px solid #e5e7eb; font-variant-numeric: tabular-nums; }
        th { background: #f8f9fa; font-weight: 600; color: #486581; font-size: 0.85rem; text-transform: uppercase; }
        .badge { display: inline-block; padding: 4px 12px; border-radius: 12px; font-size: 0.85rem; font-weight: 600; }
        .badge-success { background: #d1fae5; color: #065f46; }
        .badge-error { background: #fee2e2; color: #991b1b; }
    </style>
    {{if .SamplesJSON}}
    <script src="https://cdn.jsdelivr.net/npm/uplot@1.6.24/dist/uPlot.iife.min.js"></script>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/uplot@1.6.24/dist/uPlot.min.css">
    {{end}}
</head>
<body>
    <div class="container">
        <header>
            <h1>kipbench Report</h1>
            <div class="meta">Run {{.Report.ID}} | Generated: {{.GeneratedAt}} | {{.Report.Container.Name}}: {{formatElapsed .Report.Container.Elapsed}}</div>
        </header>

        <div class="content">
            <div class="grid">
                {{range .Report.Entries}}
                <div class="card{{if .Error}} error{{end}}">
                    <h3>{{.Name}}</h3>
                    <div class="value">{{formatFloat .Summary.GMeanKips}} K/s</div>
                    <div class="subvalue">{{.Headline}}</div>
                    {{if .Error}}<div class="subvalue">{{.Error}}</div>{{end}}
                </div>
                {{end}}
            </div>

            <div class="section">
                <h2>Throughput (K/s)</h2>
                <table>
                    <thead>
                        <tr>
                            <th>Benchmark</th>
                            <th>Count</th>
                            <th>Min</th>
                            <th>Max</th>
                            <th>Avg</th>
                            <th>Mean</th>
                            <th>Median</th>
                            <th>Sdev</th>
                            <th>P50</th>
                            <th>P90</th>
                            <th>P99</th>
                            <th>MIPS</th>
                            <th>Failed</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .Report.Entries}}
                        <tr>
                            <td><strong>{{.Name}}</strong></td>
                            <td>{{.Summary.Iterations}}</td>
                            <td>{{formatFloat .Summary.MinKips}}</td>
                            <td>{{formatFloat .Summary.MaxKips}}</td>
                            <td>{{formatFloat .Summary.AvgKips}}</td>
                            <td>{{formatFloat .Summary.GMeanKips}}</td>
                            <td>{{formatFloat .Summary.MedianKips}}</td>
                            <td>{{formatFloat .Summary.SdevKips}}</td>
                            <td>{{formatFloat .Summary.Outcomes.P50Kips}}</td>
                            <td>{{formatFloat .Summary.Outcomes.P90Kips}}</td>
                            <td>{{formatFloat .Summary.Outcomes.P99Kips}}</td>
                            <td>{{formatFloat .Summary.MIPS}}</td>
                            <td>{{.Summary.Outcomes.Failures}} ({{formatPercent .Summary.Outcomes.Failures .Summary.Outcomes.Invocations}}%)</td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>

            {{if .SamplesJSON}}
            <div class="section">
                <h2>Samples</h2>
                <div id="charts"></div>
            </div>
            {{end}}

            {{if .ThresholdSummary}}
            <div class="section">
                <h2>Thresholds ({{.ThresholdSummary.Passed}}/{{.ThresholdSummary.Total}} Passed)</h2>
                <table>
                    <thead>
                        <tr>
                            <th>Benchmark</th>
                            <th>Threshold</th>
                            <th>Expected</th>
                            <th>Actual</th>
                            <th>Status</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .ThresholdSummary.Results}}
                        <tr>
                            <td>{{.Benchmark}}</td>
                            <td>{{.Threshold}}</td>
                            <td>{{.Operator}} {{formatFloat .Expected}}</td>
                            <td>{{formatFloat .Actual}}</td>
                            <td>
                                {{if .Pass}}
                                <span class="badge badge-success">✓ PASS</span>
                                {{else}}
                                <span class="badge badge-error">✗ FAIL</span>
                                {{end}}
                            </td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}
        </div>
    </div>

    {{if .SamplesJSON}}
    <script>
        const series = JSON.parse({{.SamplesJSON}});
        const root = document.getElementById('charts');
        for (const s of series) {
            const el = document.createElement('div');
            el.className = 'chart';
            root.appendChild(el);
            new uPlot({
                title: s.name,
                width: root.offsetWidth,
                height: 300,
                scales: { x: { time: false } },
                series: [
                    { label: "Sample" },
                    { label: "K/s", stroke: "#486581", fill: "rgba(72, 101, 129, 0.1)", width: 2 }
                ],
                axes: [{ label: "Sample" }, { label: "K/s" }]
            }, [s.samples.map((_, i) => i + 1), s.samples], el);
        }
    </script>
    {{end}}
</body>
</html>
`
