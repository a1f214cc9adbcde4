package lucyreport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/davidmazza/lucyreport/internal/appconfig"
	"github.com/davidmazza/lucyreport/internal/dataset"
	"github.com/davidmazza/lucyreport/internal/tui"
)

// Both progress receivers must satisfy the pipeline's sink contract.
var (
	_ stepSink = tui.Reporter{}
	_ stepSink = plainSteps{}
)

// recordingSink captures pipeline progress calls for assertions.
type recordingSink struct {
	events []string
}

func (r *recordingSink) Started(i int) {
	r.events = append(r.events, fmt.Sprintf("started %d", i))
}

func (r *recordingSink) Done(i int, detail string) {
	r.events = append(r.events, fmt.Sprintf("done %d: %s", i, detail))
}

func (r *recordingSink) Skipped(i int, detail string) {
	r.events = append(r.events, fmt.Sprintf("skipped %d: %s", i, detail))
}

func (r *recordingSink) Failed(i int, err error) {
	r.events = append(r.events, fmt.Sprintf("failed %d", i))
}

// TestRunReportPipelineSkipAI runs the full pipeline with AI disabled and
// checks the step sequence, the written page and the metadata sidecar.
func TestRunReportPipelineSkipAI(t *testing.T) {
	csvPath := writeSampleExport(t)
	outDir := filepath.Join(t.TempDir(), "out")

	appCfg := appconfig.Default()
	params := reportParams{
		dataPath:   csvPath,
		outDir:     outDir,
		contextDir: filepath.Join(t.TempDir(), "missing-context"),
		model:      "gpt-5.2",
		title:      "Pipeline Test",
		skipAI:     true,
	}

	sink := &recordingSink{}
	htmlPath, err := runReportPipeline(context.Background(), sink, &appCfg, params)
	if err != nil {
		t.Fatalf("pipeline error: %v", err)
	}
	if htmlPath != filepath.Join(outDir, "report.html") {
		t.Fatalf("unexpected report path %s", htmlPath)
	}

	if len(sink.events) != 8 {
		t.Fatalf("expected 8 progress events, got %v", sink.events)
	}
	if sink.events[1] != "done 0: 4 rows (0 dropped)" {
		t.Errorf("unexpected load event: %s", sink.events[1])
	}
	if sink.events[3] != "done 1: 2 methods, 2 fields" {
		t.Errorf("unexpected metrics event: %s", sink.events[3])
	}
	if sink.events[5] != "skipped 2: disabled by --skip-ai" {
		t.Errorf("unexpected narrative event: %s", sink.events[5])
	}
	if !strings.HasPrefix(sink.events[7], "done 3: ") {
		t.Errorf("unexpected write event: %s", sink.events[7])
	}

	raw, err := os.ReadFile(htmlPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	page := string(raw)
	if !strings.Contains(page, "Pipeline Test") {
		t.Error("expected the report title on the page")
	}
	if !strings.Contains(page, "AI analysis unavailable (API key not configured).") {
		t.Error("expected the degraded summary placeholder on the page")
	}
	if !strings.Contains(page, "No AI model calls were made for this report.") {
		t.Error("expected the no-calls disclosure on the page")
	}

	if _, err := os.Stat(filepath.Join(outDir, "data", "run_meta.json")); err != nil {
		t.Fatalf("expected run metadata sidecar: %v", err)
	}
}

// TestRunReportPipelineLoadFailure verifies a bad input path fails the
// first step and aborts the run.
func TestRunReportPipelineLoadFailure(t *testing.T) {
	appCfg := appconfig.Default()
	params := reportParams{
		dataPath: filepath.Join(t.TempDir(), "absent.csv"),
		outDir:   t.TempDir(),
		skipAI:   true,
	}

	sink := &recordingSink{}
	if _, err := runReportPipeline(context.Background(), sink, &appCfg, params); err == nil {
		t.Fatal("expected an error for a missing export")
	}
	if len(sink.events) != 2 || sink.events[1] != "failed 0" {
		t.Fatalf("expected the load step to fail, got %v", sink.events)
	}
}

// TestNewAnalyzerDegradation covers both paths that yield an unconfigured
// analyzer: an explicit skip and absent provider credentials.
func TestNewAnalyzerDegradation(t *testing.T) {
	appCfg := appconfig.Default()

	t.Setenv("OPENAI_API_KEY", "sk-test")
	analyzer, tracker := newAnalyzer(&appCfg, "gpt-5.2", "", true)
	if analyzer.Configured() || tracker != nil {
		t.Fatal("expected an unconfigured analyzer when AI is skipped")
	}

	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	analyzer, tracker = newAnalyzer(&appCfg, "gpt-5.2", "", false)
	if analyzer.Configured() || tracker != nil {
		t.Fatal("expected an unconfigured analyzer without credentials")
	}
}

// TestReportCommandSkipAI runs the report command end to end in plain mode
// and checks the success message and the written file.
func TestReportCommandSkipAI(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "lucyreport.log")
	csvPath := writeSampleExport(t)
	outDir := filepath.Join(t.TempDir(), "out")

	out, err := execRoot(t, "--log-file", logPath, "report", "--data", csvPath, "--out", outDir, "--skip-ai", "--plain")
	if err != nil {
		t.Fatalf("ExecuteC error: %v", err)
	}
	if !strings.Contains(out, "Report written to "+filepath.Join(outDir, "report.html")) {
		t.Fatalf("expected the success message, got:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(outDir, "report.html")); err != nil {
		t.Fatalf("expected the report file: %v", err)
	}
}

// TestReportCommandRejectsUnknownFormat verifies format validation happens
// before any work.
func TestReportCommandRejectsUnknownFormat(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "lucyreport.log")
	csvPath := writeSampleExport(t)

	_, err := execRoot(t, "--log-file", logPath, "report", "--data", csvPath, "--format", "docx")
	if err == nil || !strings.Contains(err.Error(), `unsupported report format "docx"`) {
		t.Fatalf("expected a format error, got %v", err)
	}

	_, err = execRoot(t, "--log-file", logPath, "report")
	if err == nil || !strings.Contains(err.Error(), "input CSV is required") {
		t.Fatalf("expected a missing-data error, got %v", err)
	}
}

// TestTimelineFacts checks the prompt text for a short range: span line,
// per-bucket totals and one line per day with zero counts elided.
func TestTimelineFacts(t *testing.T) {
	tl := dataset.Timeline{
		Dates: []string{"2026-05-01", "2026-05-02"},
		Series: map[string][]int{
			"ML":    {2, 0},
			"Query": {1, 3},
		},
	}

	want := strings.Join([]string{
		"Days covered: 2 (2026-05-01 to 2026-05-02)",
		"Total ML: 2",
		"Total Query: 4",
		"Daily counts:",
		"2026-05-01: ML=2, Query=1",
		"2026-05-02: Query=3",
	}, "\n")
	if got := timelineFacts(tl); got != want {
		t.Errorf("timelineFacts mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}

	if got := timelineFacts(dataset.Timeline{}); got != "No dated rows." {
		t.Errorf("expected the empty-range text, got %q", got)
	}
}

// TestTimelineFactsLongRange verifies ranges beyond the window keep their
// totals but only list the most recent days.
func TestTimelineFactsLongRange(t *testing.T) {
	days := maxTimelineDays + 5
	dates := make([]string, days)
	counts := make([]int, days)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i).Format("2006-01-02")
		counts[i] = 1
	}

	got := timelineFacts(dataset.Timeline{Dates: dates, Series: map[string][]int{"ML": counts}})
	if !strings.Contains(got, fmt.Sprintf("Days covered: %d", days)) {
		t.Errorf("expected the full span in the facts, got:\n%s", got)
	}
	if !strings.Contains(got, fmt.Sprintf("Total ML: %d", days)) {
		t.Errorf("expected the full total in the facts, got:\n%s", got)
	}
	if !strings.Contains(got, fmt.Sprintf("Most recent %d days:", maxTimelineDays)) {
		t.Errorf("expected the windowed day list, got:\n%s", got)
	}
	if strings.Contains(got, dates[0]+": ") {
		t.Errorf("expected the oldest day line to be elided, got:\n%s", got)
	}
}

// TestConclusionFacts checks the closing-section facts: headline counts
// plus best and worst F1 across methods with validated rows.
func TestConclusionFacts(t *testing.T) {
	sum := dataset.Summary{Rows: 4, Validated: 3, ValidationRate: 0.75}
	methods := []dataset.MethodMetrics{
		{Method: "azure_model", Validated: 2, F1: 0.667},
		{Method: "logo", Validated: 0, F1: 0.1},
		{Method: "query", Validated: 1, F1: 0.9},
	}

	want := strings.Join([]string{
		"Rows: 4",
		"Validated: 3 (75.0%)",
		"Best F1: query (0.9)",
		"Worst F1: azure_model (0.667)",
	}, "\n")
	if got := conclusionFacts(sum, methods); got != want {
		t.Errorf("conclusionFacts mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}

	single := conclusionFacts(sum, methods[:1])
	if strings.Contains(single, "Worst F1") {
		t.Errorf("expected no worst line for a single method, got:\n%s", single)
	}

	none := conclusionFacts(sum, methods[1:2])
	if strings.Contains(none, "Best F1") {
		t.Errorf("expected no extremes without validated rows, got:\n%s", none)
	}
}

func TestF1Extremes(t *testing.T) {
	methods := []dataset.MethodMetrics{
		{Method: "a", Validated: 0, F1: 0.99},
		{Method: "b", Validated: 5, F1: 0.4},
		{Method: "c", Validated: 2, F1: 0.8},
	}

	best, worst, ok := f1Extremes(methods)
	if !ok || best.Method != "c" || worst.Method != "b" {
		t.Fatalf("unexpected extremes: best=%s worst=%s ok=%v", best.Method, worst.Method, ok)
	}

	if _, _, ok := f1Extremes(methods[:1]); ok {
		t.Fatal("expected ok=false when no method has validated rows")
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "  ", "x", "y"); got != "x" {
		t.Errorf("expected x, got %q", got)
	}
	if got := firstNonEmpty("", "  "); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
