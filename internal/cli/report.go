// internal/cli/report.go
package lucyreport

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/davidmazza/lucyreport/internal/analysis"
	"github.com/davidmazza/lucyreport/internal/appconfig"
	"github.com/davidmazza/lucyreport/internal/dataset"
	"github.com/davidmazza/lucyreport/internal/llm"
	"github.com/davidmazza/lucyreport/internal/logging"
	"github.com/davidmazza/lucyreport/internal/report"
	"github.com/davidmazza/lucyreport/internal/tui"
	"github.com/spf13/cobra"
)

// maxTimelineDays caps the per-day lines handed to the timeline prompt;
// longer ranges keep their totals but elide the older daily detail.
const maxTimelineDays = 45

type reportOptions struct {
	dataPath   string
	outDir     string
	contextDir string
	model      string
	format     string
	skipAI     bool
	plain      bool
}

var reportOpts reportOptions

// reportCmd runs the full pipeline: load the validation export, compute
// confusion metrics, generate the AI narrative and write the HTML report
// with its run-metadata sidecar.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the full validation report from a Lucy CSV export",
	Long: `Load a Lucy validation export, compute per-method and per-field confusion
metrics, generate the AI narrative sections (degrading to placeholder text
when no provider credential is configured) and write a self-contained HTML
report plus a run metadata sidecar.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appCfg := GetConfig()
		params := reportParams{
			dataPath:   firstNonEmpty(reportOpts.dataPath, appCfg.DataPath),
			outDir:     firstNonEmpty(reportOpts.outDir, appCfg.OutputDirPath()),
			contextDir: firstNonEmpty(reportOpts.contextDir, appCfg.ContextDirPath()),
			model:      firstNonEmpty(reportOpts.model, appCfg.PreferredModel()),
			title:      appCfg.Title(),
			skipAI:     reportOpts.skipAI || appCfg.SkipAI,
		}
		if params.dataPath == "" {
			return fmt.Errorf("input CSV is required (pass --data or set data in the config)")
		}
		if reportOpts.format != "html" {
			return fmt.Errorf("unsupported report format %q (the report command writes html; use the render command for pdf or revealjs)", reportOpts.format)
		}

		plain := reportOpts.plain || appCfg.Plain || !stdoutIsTTY()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		steps := []string{"Load dataset", "Compute metrics", "Generate AI narrative", "Write report"}

		var htmlPath string
		run := func(progress stepSink) error {
			path, err := runReportPipeline(ctx, progress, appCfg, params)
			if err != nil {
				return err
			}
			htmlPath = path
			return nil
		}

		var err error
		if plain {
			err = run(plainSteps{names: steps})
		} else {
			err = tui.Run(params.title, steps, cancel, func(r tui.Reporter) error { return run(r) })
		}
		if err != nil {
			return err
		}

		cmd.Printf("Report written to %s\n", htmlPath)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportOpts.dataPath, "data", "", "Path to the Lucy validation CSV export (required unless set in the config)")
	reportCmd.Flags().StringVar(&reportOpts.outDir, "out", "", "Directory the report is written into (defaults to the config output dir)")
	reportCmd.Flags().StringVar(&reportOpts.contextDir, "context-dir", "", "Directory holding domain documentation for prompt context")
	reportCmd.Flags().StringVar(&reportOpts.model, "model", "", "Preferred model for the AI narrative")
	reportCmd.Flags().StringVar(&reportOpts.format, "format", "html", "Report output format")
	reportCmd.Flags().BoolVar(&reportOpts.skipAI, "skip-ai", false, "Skip all model calls; narrative sections degrade to placeholders")
	reportCmd.Flags().BoolVar(&reportOpts.plain, "plain", false, "Log plain progress lines instead of the interactive step view")

	rootCmd.AddCommand(reportCmd)
}

// reportParams is the merged flag/config input of one report run.
type reportParams struct {
	dataPath   string
	outDir     string
	contextDir string
	model      string
	title      string
	skipAI     bool
}

// stepSink receives pipeline progress; the interactive step view and the
// plain logger both satisfy it.
type stepSink interface {
	Started(i int)
	Done(i int, detail string)
	Skipped(i int, detail string)
	Failed(i int, err error)
}

// plainSteps logs progress as plain lines for piped output and CI runs.
type plainSteps struct {
	names []string
}

func (p plainSteps) Started(i int) {
	logging.LogEvent("[%d/%d] %s...", i+1, len(p.names), p.names[i])
}

func (p plainSteps) Done(i int, detail string) {
	if detail == "" {
		detail = "done"
	}
	logging.LogEvent("[%d/%d] %s: %s", i+1, len(p.names), p.names[i], detail)
}

func (p plainSteps) Skipped(i int, detail string) {
	if detail == "" {
		detail = "skipped"
	}
	logging.LogEvent("[%d/%d] %s: %s", i+1, len(p.names), p.names[i], detail)
}

func (p plainSteps) Failed(i int, err error) {
	logging.LogError("[%d/%d] %s failed: %v", i+1, len(p.names), p.names[i], err)
}

// stdoutIsTTY reports whether stdout is attached to a terminal. Piped and
// CI output gets plain log lines instead of the interactive view.
func stdoutIsTTY() bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// runReportPipeline executes the four report steps and returns the path of
// the written HTML file.
func runReportPipeline(ctx context.Context, progress stepSink, appCfg *appconfig.Config, params reportParams) (string, error) {
	progress.Started(0)
	ds, err := dataset.LoadCSV(params.dataPath)
	if err != nil {
		progress.Failed(0, err)
		return "", err
	}
	progress.Done(0, fmt.Sprintf("%d rows (%d dropped)", ds.Len(), ds.Dropped))

	progress.Started(1)
	sum := dataset.Summarize(ds)
	methods := dataset.MetricsByMethod(ds)
	fields := dataset.MetricsByFieldAndMethod(ds)
	timeline := dataset.DailyCounts(ds)
	countries := dataset.CountryAccuracy(ds)
	progress.Done(1, fmt.Sprintf("%d methods, %d fields", len(methods), len(fields)))

	progress.Started(2)
	analyzer, tracker := newAnalyzer(appCfg, params.model, params.contextDir, params.skipAI)
	input := report.Input{
		Title:     params.title,
		DataPath:  params.dataPath,
		Summary:   sum,
		Methods:   methods,
		Fields:    fields,
		Timeline:  timeline,
		Countries: countries,
		Narrative: buildNarrative(ctx, analyzer, ds, sum, methods, timeline),
	}
	switch {
	case params.skipAI:
		progress.Skipped(2, "disabled by --skip-ai")
	case !analyzer.Configured():
		progress.Skipped(2, "no provider credential")
	default:
		input.Usage = tracker.UsageStats()
		input.PrimaryModel, _ = tracker.PrimaryModel()
		progress.Done(2, fmt.Sprintf("%d model call(s)", tracker.TotalCalls()))
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	progress.Started(3)
	htmlPath, err := report.WriteReport(params.outDir, input)
	if err != nil {
		progress.Failed(3, err)
		return "", err
	}
	progress.Done(3, htmlPath)
	return htmlPath, nil
}

// newAnalyzer wires the fallback generator for a run. Skipping AI or
// missing credentials yields an unconfigured analyzer (and no tracker);
// every narrative operation then degrades without attempting a call.
func newAnalyzer(appCfg *appconfig.Config, model, contextDir string, skipAI bool) (*analysis.Analyzer, *llm.Tracker) {
	if skipAI {
		return analysis.New(nil, nil, contextDir), nil
	}
	modelCfg, err := llm.Resolve(model, appCfg.TemperatureValue())
	if err != nil {
		logging.LogEvent("model selection: %v; narrative sections fall back to placeholder text", err)
		return analysis.New(nil, nil, contextDir), nil
	}
	tracker := llm.NewTracker()
	gen := llm.NewGenerator(tracker, appCfg.InvokeTimeout())
	return analysis.New(gen, modelCfg, contextDir), tracker
}

// buildNarrative generates every AI section of the report. The summary is
// always present (placeholder on degradation); the other sections are
// left blank and omitted from the page when generation is not possible.
func buildNarrative(ctx context.Context, analyzer *analysis.Analyzer, ds *dataset.Dataset, sum dataset.Summary, methods []dataset.MethodMetrics, timeline dataset.Timeline) report.Narrative {
	var nar report.Narrative
	nar.Summary = analyzer.DataSummary(ctx, sum)

	methodChart := analysis.Chart{
		Description: "Grouped bar chart of precision, recall, F1 and accuracy per extraction method",
		DataSummary: report.MethodMetricsTable("Metrics by method", methods).Markdown(),
	}
	if text, ok := analyzer.ChartCommentary(ctx, methodChart); ok {
		nar.MethodCommentary = text
	}

	timelineChart := analysis.Chart{
		Description: "Stacked daily bar chart of extraction volume per method bucket",
		DataSummary: timelineFacts(timeline),
	}
	if text, ok := analyzer.ChartCommentary(ctx, timelineChart); ok {
		nar.TimelineCommentary = text
	}

	if text, ok := analyzer.ErrorPatterns(ctx, ds.Records, ""); ok {
		nar.ErrorAnalysis = text
	}

	if text, ok := analyzer.SectionText(ctx, "Conclusions and recommended next steps", conclusionFacts(sum, methods)); ok {
		nar.Conclusions = text
	}

	return nar
}

// timelineFacts renders the daily volume series as prompt-ready text:
// span, per-bucket totals, then day lines for the most recent window.
func timelineFacts(tl dataset.Timeline) string {
	if len(tl.Dates) == 0 {
		return "No dated rows."
	}

	buckets := make([]string, 0, len(tl.Series))
	for name := range tl.Series {
		buckets = append(buckets, name)
	}
	sort.Strings(buckets)

	var b strings.Builder
	fmt.Fprintf(&b, "Days covered: %d (%s to %s)\n", len(tl.Dates), tl.Dates[0], tl.Dates[len(tl.Dates)-1])
	for _, name := range buckets {
		total := 0
		for _, n := range tl.Series[name] {
			total += n
		}
		fmt.Fprintf(&b, "Total %s: %d\n", name, total)
	}

	start := 0
	if len(tl.Dates) > maxTimelineDays {
		start = len(tl.Dates) - maxTimelineDays
		fmt.Fprintf(&b, "Most recent %d days:\n", maxTimelineDays)
	} else {
		b.WriteString("Daily counts:\n")
	}
	for i := start; i < len(tl.Dates); i++ {
		parts := make([]string, 0, len(buckets))
		for _, name := range buckets {
			if counts := tl.Series[name]; i < len(counts) && counts[i] > 0 {
				parts = append(parts, fmt.Sprintf("%s=%d", name, counts[i]))
			}
		}
		if len(parts) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", tl.Dates[i], strings.Join(parts, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// conclusionFacts condenses the run into the headline numbers the closing
// section reasons about.
func conclusionFacts(sum dataset.Summary, methods []dataset.MethodMetrics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rows: %d\n", sum.Rows)
	fmt.Fprintf(&b, "Validated: %d (%.1f%%)\n", sum.Validated, sum.ValidationRate*100)
	if best, worst, ok := f1Extremes(methods); ok {
		fmt.Fprintf(&b, "Best F1: %s (%s)\n", best.Method, report.Number(best.F1))
		if worst.Method != best.Method {
			fmt.Fprintf(&b, "Worst F1: %s (%s)\n", worst.Method, report.Number(worst.F1))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// f1Extremes returns the best and worst methods by F1 among those with
// validated rows; ok is false when nothing was validated.
func f1Extremes(methods []dataset.MethodMetrics) (best, worst dataset.MethodMetrics, ok bool) {
	for _, m := range methods {
		if m.Validated == 0 {
			continue
		}
		if !ok {
			best, worst, ok = m, m, true
			continue
		}
		if m.F1 > best.F1 {
			best = m
		}
		if m.F1 < worst.F1 {
			worst = m
		}
	}
	return best, worst, ok
}

// firstNonEmpty returns the first value that is not blank.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
