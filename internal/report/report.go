// internal/report/report.go
// Package report assembles the standalone HTML validation report: metric
// tables rendered from markdown, chart.js payloads, the AI narrative
// sections, and the model-usage disclosure. It also writes the run
// metadata sidecar next to the report.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/davidmazza/lucyreport/internal/dataset"
	"github.com/davidmazza/lucyreport/internal/util"
)

// ReportFileName is the HTML file written into the output directory.
const ReportFileName = "report.html"

// metaFileName is the run metadata sidecar, under the data/ subdirectory.
const metaFileName = "run_meta.json"

// Narrative carries the AI-written sections. Summary is always set (the
// analyzer degrades to placeholder text); the others are omitted from the
// report when blank.
type Narrative struct {
	Summary            string
	MethodCommentary   string
	TimelineCommentary string
	ErrorAnalysis      string
	Conclusions        string
}

// Input is everything the report needs, precomputed by the caller.
type Input struct {
	Title        string
	DataPath     string
	GeneratedAt  time.Time
	Summary      dataset.Summary
	Methods      []dataset.MethodMetrics
	Fields       []dataset.FieldMetrics
	Timeline     dataset.Timeline
	Countries    []dataset.CountryCell
	Narrative    Narrative
	Usage        map[string]int
	PrimaryModel string
}

// RunMeta is the JSON sidecar describing one report run.
type RunMeta struct {
	RunID        string         `json:"run_id"`
	GeneratedAt  time.Time      `json:"generated_at"`
	DataPath     string         `json:"data_path"`
	Rows         int            `json:"rows"`
	Validated    int            `json:"validated"`
	ModelUsage   map[string]int `json:"model_usage"`
	PrimaryModel string         `json:"primary_model,omitempty"`
}

type reportView struct {
	Title                  string
	GeneratedAt            string
	Rows                   int
	Validated              int
	ValidationRate         string
	Period                 string
	SummaryHTML            template.HTML
	MethodsTableHTML       template.HTML
	FieldTablesHTML        []template.HTML
	CountriesTableHTML     template.HTML
	MethodCommentaryHTML   template.HTML
	TimelineCommentaryHTML template.HTML
	ErrorAnalysisHTML      template.HTML
	ConclusionsHTML        template.HTML
	DisclosureLines        []string
	ChartsJSON             template.JS
}

type chartsPayload struct {
	Methods   methodsChart     `json:"methods"`
	Usage     usageChart       `json:"usage"`
	Timeline  dataset.Timeline `json:"timeline"`
	Countries countriesChart   `json:"countries"`
}

type methodsChart struct {
	Labels    []string  `json:"labels"`
	Precision []float64 `json:"precision"`
	Recall    []float64 `json:"recall"`
	F1        []float64 `json:"f1"`
	Accuracy  []float64 `json:"accuracy"`
}

type usageChart struct {
	Labels []string `json:"labels"`
	Counts []int    `json:"counts"`
}

// countriesChart is a dense country x method accuracy matrix; missing
// combinations are null so chart.js skips them.
type countriesChart struct {
	Countries []string     `json:"countries"`
	Methods   []string     `json:"methods"`
	Matrix    [][]*float64 `json:"matrix"`
}

// GenerateHTML renders the standalone report page from the assembled
// input.
func GenerateHTML(in Input) (string, error) {
	payload, err := json.Marshal(buildChartsPayload(in))
	if err != nil {
		return "", fmt.Errorf("could not encode chart payload: %w", err)
	}

	view := reportView{
		Title:            in.Title,
		GeneratedAt:      in.GeneratedAt.Format("2006-01-02 15:04:05"),
		Rows:             in.Summary.Rows,
		Validated:        in.Summary.Validated,
		ValidationRate:   fmt.Sprintf("%.1f%%", in.Summary.ValidationRate*100),
		SummaryHTML:      MarkdownHTML(in.Narrative.Summary),
		MethodsTableHTML: MarkdownHTML(MethodMetricsTable("Metrics by method", in.Methods).Markdown()),
		DisclosureLines:  disclosureLines(in.Usage, in.PrimaryModel),
		ChartsJSON:       template.JS(payload),
	}
	if !in.Summary.Start.IsZero() {
		view.Period = fmt.Sprintf("%s to %s", in.Summary.Start.Format("2006-01-02"), in.Summary.End.Format("2006-01-02"))
	}
	for _, f := range in.Fields {
		view.FieldTablesHTML = append(view.FieldTablesHTML, MarkdownHTML(FieldMetricsTable(f).Markdown()))
	}
	view.CountriesTableHTML = MarkdownHTML(CountryAccuracyTable("", in.Countries).Markdown())
	view.MethodCommentaryHTML = MarkdownHTML(in.Narrative.MethodCommentary)
	view.TimelineCommentaryHTML = MarkdownHTML(in.Narrative.TimelineCommentary)
	view.ErrorAnalysisHTML = MarkdownHTML(in.Narrative.ErrorAnalysis)
	view.ConclusionsHTML = MarkdownHTML(in.Narrative.Conclusions)

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("could not render report template: %w", err)
	}
	return buf.String(), nil
}

// WriteReport renders the report into outDir and drops the run metadata
// sidecar under outDir/data. It returns the path of the HTML file.
func WriteReport(outDir string, in Input) (string, error) {
	if in.GeneratedAt.IsZero() {
		in.GeneratedAt = time.Now()
	}

	page, err := GenerateHTML(in)
	if err != nil {
		return "", err
	}

	dataDir := filepath.Join(outDir, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("could not create output directory %q: %w", outDir, err)
	}

	htmlPath := filepath.Join(outDir, ReportFileName)
	if err := util.WriteFile(htmlPath, []byte(page)); err != nil {
		return "", fmt.Errorf("could not write report: %w", err)
	}

	meta := RunMeta{
		RunID:        uuid.NewString(),
		GeneratedAt:  in.GeneratedAt,
		DataPath:     in.DataPath,
		Rows:         in.Summary.Rows,
		Validated:    in.Summary.Validated,
		ModelUsage:   in.Usage,
		PrimaryModel: in.PrimaryModel,
	}
	encoded, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("could not encode run metadata: %w", err)
	}
	if err := util.WriteFile(filepath.Join(dataDir, metaFileName), encoded); err != nil {
		return "", fmt.Errorf("could not write run metadata: %w", err)
	}
	return htmlPath, nil
}

var markdownConverter = goldmark.New(goldmark.WithExtensions(extension.GFM))

// MarkdownHTML converts model-written markdown into HTML for embedding.
// On conversion failure the raw text survives escaped rather than being
// lost.
func MarkdownHTML(md string) template.HTML {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdownConverter.Convert([]byte(md), &buf); err != nil {
		return template.HTML("<pre>" + html.EscapeString(md) + "</pre>")
	}
	return template.HTML(buf.String())
}

// disclosureLines summarizes which models actually wrote the narrative,
// ordered by successful call count.
func disclosureLines(usage map[string]int, primary string) []string {
	if len(usage) == 0 {
		return []string{"No AI model calls were made for this report."}
	}
	models := make([]string, 0, len(usage))
	for model := range usage {
		models = append(models, model)
	}
	sort.Slice(models, func(i, j int) bool {
		if usage[models[i]] != usage[models[j]] {
			return usage[models[i]] > usage[models[j]]
		}
		return models[i] < models[j]
	})
	lines := make([]string, 0, len(models)+1)
	for _, model := range models {
		n := usage[model]
		unit := "successful calls"
		if n == 1 {
			unit = "successful call"
		}
		lines = append(lines, fmt.Sprintf("%s: %d %s", model, n, unit))
	}
	if primary != "" {
		lines = append(lines, fmt.Sprintf("Primary model for this report: %s", primary))
	}
	return lines
}

func buildChartsPayload(in Input) chartsPayload {
	payload := chartsPayload{Timeline: in.Timeline}

	for _, m := range in.Methods {
		payload.Methods.Labels = append(payload.Methods.Labels, m.Method)
		payload.Methods.Precision = append(payload.Methods.Precision, util.RoundTo(m.Precision, 3))
		payload.Methods.Recall = append(payload.Methods.Recall, util.RoundTo(m.Recall, 3))
		payload.Methods.F1 = append(payload.Methods.F1, util.RoundTo(m.F1, 3))
		payload.Methods.Accuracy = append(payload.Methods.Accuracy, util.RoundTo(m.Accuracy, 3))
	}

	payload.Usage = buildUsageChart(in.Summary.MethodCounts)
	payload.Countries = buildCountriesChart(in.Countries)
	return payload
}

func buildUsageChart(counts map[string]int) usageChart {
	labels := make([]string, 0, len(counts))
	for method := range counts {
		labels = append(labels, method)
	}
	sort.Slice(labels, func(i, j int) bool {
		if counts[labels[i]] != counts[labels[j]] {
			return counts[labels[i]] > counts[labels[j]]
		}
		return labels[i] < labels[j]
	})
	chart := usageChart{Labels: labels}
	for _, method := range labels {
		chart.Counts = append(chart.Counts, counts[method])
	}
	return chart
}

func buildCountriesChart(cells []dataset.CountryCell) countriesChart {
	countrySet := make(map[string]int)
	methodSet := make(map[string]int)
	for _, c := range cells {
		countrySet[c.Country] = 0
		methodSet[c.Method] = 0
	}

	chart := countriesChart{
		Countries: sortedKeys(countrySet),
		Methods:   sortedKeys(methodSet),
	}
	for i, name := range chart.Countries {
		countrySet[name] = i
	}
	for i, name := range chart.Methods {
		methodSet[name] = i
	}

	chart.Matrix = make([][]*float64, len(chart.Countries))
	for i := range chart.Matrix {
		chart.Matrix[i] = make([]*float64, len(chart.Methods))
	}
	for _, c := range cells {
		v := util.RoundTo(c.Accuracy, 3)
		chart.Matrix[countrySet[c.Country]][methodSet[c.Method]] = &v
	}
	return chart
}

func sortedKeys(set map[string]int) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var reportTemplate = template.Must(template.New("validation-report").Parse(reportTemplateHTML))

const reportTemplateHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{ .Title }}</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/css/bootstrap.min.css">
  <style>
    :root {
      --primary: #334155;
      --secondary: #64748B;
      --accent: #3B82F6;
      --light: #F1F5F9;
      --background: #FFFFFF;
      --text: #0F172A;
      --border: #E2E8F0;
    }
    body {
      background-color: var(--light);
      color: var(--text);
    }
    .navbar-dark {
      background-color: var(--primary) !important;
    }
    .stat-card {
      background: var(--background);
      border: 1px solid var(--border);
      border-radius: 12px;
      padding: 1rem 1.25rem;
      height: 100%;
    }
    .stat-label {
      color: var(--secondary);
      font-size: 0.85rem;
      text-transform: uppercase;
      letter-spacing: 0.04em;
    }
    .stat-value {
      font-size: 1.6rem;
      font-weight: 700;
    }
    .section-card {
      background: var(--background);
      border: 1px solid var(--border);
      border-radius: 16px;
      padding: 1.5rem;
      margin-bottom: 1.5rem;
      box-shadow: 0 1px 3px rgba(15, 23, 42, 0.08);
    }
    .section-title {
      font-size: 1.35rem;
      font-weight: 700;
      margin-bottom: 1rem;
    }
    .chart-canvas {
      position: relative;
      height: 380px;
    }
    .narrative {
      line-height: 1.6;
    }
    .narrative ul { padding-left: 1.25rem; }
    .table-wrap table {
      width: 100%;
      border-collapse: collapse;
      margin-bottom: 0.5rem;
    }
    .table-wrap th,
    .table-wrap td {
      border: 1px solid var(--border);
      padding: 0.4rem 0.6rem;
      text-align: left;
      font-size: 0.9rem;
    }
    .table-wrap thead th {
      background-color: var(--light);
    }
    .disclosure li { margin-bottom: 0.25rem; }
    footer {
      color: var(--secondary);
      font-size: 0.85rem;
      padding: 1.5rem 0;
    }
  </style>
</head>
<body>
  <nav class="navbar navbar-dark mb-4">
    <div class="container">
      <span class="navbar-brand mb-0 h1">{{ .Title }}</span>
      <span class="text-light">Generated {{ .GeneratedAt }}</span>
    </div>
  </nav>

  <div class="container">
    <div class="row g-3 mb-4">
      <div class="col-md-3 col-6">
        <div class="stat-card">
          <div class="stat-label">Rows</div>
          <div class="stat-value">{{ .Rows }}</div>
        </div>
      </div>
      <div class="col-md-3 col-6">
        <div class="stat-card">
          <div class="stat-label">Validated</div>
          <div class="stat-value">{{ .Validated }}</div>
        </div>
      </div>
      <div class="col-md-3 col-6">
        <div class="stat-card">
          <div class="stat-label">Validation rate</div>
          <div class="stat-value">{{ .ValidationRate }}</div>
        </div>
      </div>
      <div class="col-md-3 col-6">
        <div class="stat-card">
          <div class="stat-label">Period</div>
          <div class="stat-value">{{ if .Period }}{{ .Period }}{{ else }}n/a{{ end }}</div>
        </div>
      </div>
    </div>

    <div class="section-card">
      <div class="section-title">Executive summary</div>
      <div class="narrative">{{ .SummaryHTML }}</div>
    </div>

    <div class="section-card">
      <div class="section-title">Metrics by method</div>
      <div class="table-wrap">{{ .MethodsTableHTML }}</div>
      <div class="chart-canvas"><canvas id="methodMetricsChart"></canvas></div>
      {{ if .MethodCommentaryHTML }}
      <div class="narrative mt-3">{{ .MethodCommentaryHTML }}</div>
      {{ end }}
    </div>

    <div class="section-card">
      <div class="section-title">Method usage</div>
      <div class="chart-canvas"><canvas id="methodUsageChart"></canvas></div>
    </div>

    <div class="section-card">
      <div class="section-title">Daily volume</div>
      <div class="chart-canvas"><canvas id="timelineChart"></canvas></div>
      {{ if .TimelineCommentaryHTML }}
      <div class="narrative mt-3">{{ .TimelineCommentaryHTML }}</div>
      {{ end }}
    </div>

    {{ if .FieldTablesHTML }}
    <div class="section-card">
      <div class="section-title">Metrics by field</div>
      {{ range .FieldTablesHTML }}
      <div class="table-wrap mb-4">{{ . }}</div>
      {{ end }}
    </div>
    {{ end }}

    <div class="section-card">
      <div class="section-title">Accuracy by country</div>
      <div class="table-wrap">{{ .CountriesTableHTML }}</div>
      <div class="chart-canvas"><canvas id="countryChart"></canvas></div>
    </div>

    {{ if .ErrorAnalysisHTML }}
    <div class="section-card">
      <div class="section-title">Error analysis</div>
      <div class="narrative">{{ .ErrorAnalysisHTML }}</div>
    </div>
    {{ end }}

    {{ if .ConclusionsHTML }}
    <div class="section-card">
      <div class="section-title">Conclusions</div>
      <div class="narrative">{{ .ConclusionsHTML }}</div>
    </div>
    {{ end }}

    <div class="section-card">
      <div class="section-title">About the AI narrative</div>
      <ul class="disclosure">
        {{ range .DisclosureLines }}
        <li>{{ . }}</li>
        {{ end }}
      </ul>
    </div>

    <footer class="text-center">
      {{ .Title }} &middot; generated {{ .GeneratedAt }}
    </footer>
  </div>

  <script src="https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/js/bootstrap.bundle.min.js"></script>
  <script src="https://cdn.jsdelivr.net/npm/chart.js@4.4.2/dist/chart.umd.min.js"></script>
  <script>
    var charts = {{ .ChartsJSON }};
  </script>
  <script>
    (function () {
      var palette = ['#3B82F6', '#10B981', '#F59E0B', '#EF4444', '#8B5CF6', '#14B8A6', '#F97316', '#64748B'];

      function hideSection(canvasId) {
        var canvas = document.getElementById(canvasId);
        if (canvas && canvas.parentElement) {
          canvas.parentElement.style.display = 'none';
        }
      }

      function buildMethodMetricsChart(data) {
        var canvas = document.getElementById('methodMetricsChart');
        if (!canvas) {
          return;
        }
        if (!data.labels || !data.labels.length) {
          hideSection('methodMetricsChart');
          return;
        }
        new Chart(canvas, {
          type: 'bar',
          data: {
            labels: data.labels,
            datasets: [
              { label: 'Precision', data: data.precision, backgroundColor: palette[0] },
              { label: 'Recall', data: data.recall, backgroundColor: palette[1] },
              { label: 'F1', data: data.f1, backgroundColor: palette[2] },
              { label: 'Accuracy', data: data.accuracy, backgroundColor: palette[3] }
            ]
          },
          options: {
            responsive: true,
            maintainAspectRatio: false,
            scales: {
              y: { beginAtZero: true, max: 1 }
            }
          }
        });
      }

      function buildMethodUsageChart(data) {
        var canvas = document.getElementById('methodUsageChart');
        if (!canvas) {
          return;
        }
        if (!data.labels || !data.labels.length) {
          hideSection('methodUsageChart');
          return;
        }
        var colors = data.labels.map(function (_, i) { return palette[i % palette.length]; });
        new Chart(canvas, {
          type: 'doughnut',
          data: {
            labels: data.labels,
            datasets: [{ data: data.counts, backgroundColor: colors }]
          },
          options: {
            responsive: true,
            maintainAspectRatio: false,
            plugins: {
              legend: { position: 'right' }
            }
          }
        });
      }

      function buildTimelineChart(data) {
        var canvas = document.getElementById('timelineChart');
        if (!canvas) {
          return;
        }
        if (!data.dates || !data.dates.length) {
          hideSection('timelineChart');
          return;
        }
        var datasets = [];
        Object.keys(data.series || {}).sort().forEach(function (name, i) {
          datasets.push({
            label: name,
            data: data.series[name],
            backgroundColor: palette[i % palette.length],
            stack: 'volume'
          });
        });
        new Chart(canvas, {
          type: 'bar',
          data: { labels: data.dates, datasets: datasets },
          options: {
            responsive: true,
            maintainAspectRatio: false,
            scales: {
              x: { stacked: true },
              y: { stacked: true, beginAtZero: true }
            }
          }
        });
      }

      function buildCountryChart(data) {
        var canvas = document.getElementById('countryChart');
        if (!canvas) {
          return;
        }
        if (!data.countries || !data.countries.length) {
          hideSection('countryChart');
          return;
        }
        var datasets = data.methods.map(function (method, j) {
          return {
            label: method,
            data: data.matrix.map(function (row) { return row[j]; }),
            backgroundColor: palette[j % palette.length]
          };
        });
        new Chart(canvas, {
          type: 'bar',
          data: { labels: data.countries, datasets: datasets },
          options: {
            responsive: true,
            maintainAspectRatio: false,
            scales: {
              y: { beginAtZero: true, max: 1 }
            }
          }
        });
      }

      document.addEventListener('DOMContentLoaded', function () {
        buildMethodMetricsChart(charts.methods || {});
        buildMethodUsageChart(charts.usage || {});
        buildTimelineChart(charts.timeline || {});
        buildCountryChart(charts.countries || {});
      });
    })();
  </script>
</body>
</html>
`
