// internal/cli/analyze.go
package lucyreport

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/davidmazza/lucyreport/internal/dataset"
	"github.com/davidmazza/lucyreport/internal/report"
	"github.com/fatih/color"
	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"
)

type analyzeOptions struct {
	dataPath string
	field    string
	jsonPath string
}

var analyzeOpts analyzeOptions

var (
	captionText = color.New(color.FgGreen, color.Bold).SprintFunc()
	headerText  = color.New(color.FgCyan).SprintFunc()
	mutedText   = color.New(color.Faint).SprintFunc()
)

// analyzeReport bundles the computed aggregates for console display and
// the optional JSON dump.
type analyzeReport struct {
	Summary dataset.Summary         `json:"summary"`
	Methods []dataset.MethodMetrics `json:"methods"`
	Fields  []dataset.FieldMetrics  `json:"fields"`
}

// analyzeCmd computes the confusion metrics of an export and prints them
// as console tables, without generating a report.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute validation metrics and print them as console tables",
	Long: `Load a Lucy validation export and print the per-method confusion metrics,
optionally scoped to one extraction field. Pass --json to also write the
computed aggregates to a file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appCfg := GetConfig()
		dataPath := firstNonEmpty(analyzeOpts.dataPath, appCfg.DataPath)
		if dataPath == "" {
			return fmt.Errorf("input CSV is required (pass --data or set data in the config)")
		}

		ds, err := dataset.LoadCSV(dataPath)
		if err != nil {
			return err
		}
		if analyzeOpts.field != "" {
			ds = ds.FilterByField(analyzeOpts.field)
			if ds.Len() == 0 {
				return fmt.Errorf("no rows for field %q in %s", analyzeOpts.field, dataPath)
			}
		}

		agg := analyzeReport{
			Summary: dataset.Summarize(ds),
			Methods: dataset.MetricsByMethod(ds),
			Fields:  dataset.MetricsByFieldAndMethod(ds),
		}

		out := cmd.OutOrStdout()
		printSummary(out, dataPath, agg.Summary)
		printMetricsTable(out, "Metrics by method", agg.Methods)
		if analyzeOpts.field == "" {
			for _, f := range agg.Fields {
				printMetricsTable(out, fmt.Sprintf("Field: %s", f.Field), f.Methods)
			}
		}

		if DebugEnabled() {
			pp.Println(agg)
		}

		if analyzeOpts.jsonPath != "" {
			if err := writeAnalyzeJSON(analyzeOpts.jsonPath, agg); err != nil {
				return err
			}
			cmd.Printf("Analysis JSON written to %s\n", analyzeOpts.jsonPath)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeOpts.dataPath, "data", "", "Path to the Lucy validation CSV export (required unless set in the config)")
	analyzeCmd.Flags().StringVar(&analyzeOpts.field, "field", "", "Restrict the analysis to one extraction field")
	analyzeCmd.Flags().StringVar(&analyzeOpts.jsonPath, "json", "", "Optional path to write the computed aggregates as JSON")

	rootCmd.AddCommand(analyzeCmd)
}

func printSummary(out io.Writer, path string, s dataset.Summary) {
	fmt.Fprintln(out, captionText("Dataset"))
	fmt.Fprintf(out, "  File:      %s\n", path)
	fmt.Fprintf(out, "  Rows:      %d\n", s.Rows)
	fmt.Fprintf(out, "  Validated: %d (%.1f%%)\n", s.Validated, s.ValidationRate*100)
	if !s.Start.IsZero() {
		fmt.Fprintf(out, "  Period:    %s to %s\n", s.Start.Format("2006-01-02"), s.End.Format("2006-01-02"))
	}
	fmt.Fprintf(out, "  Fields:    %d\n", len(s.FieldCounts))
	fmt.Fprintln(out)
}

func printMetricsTable(out io.Writer, caption string, methods []dataset.MethodMetrics) {
	fmt.Fprintln(out, captionText(caption))
	if len(methods) == 0 {
		fmt.Fprintln(out, mutedText("  no validated data"))
		fmt.Fprintln(out)
		return
	}

	nameWidth := len("Method")
	for _, m := range methods {
		if len(m.Method) > nameWidth {
			nameWidth = len(m.Method)
		}
	}

	header := fmt.Sprintf("  %-*s %5s %5s %5s %5s %5s %9s %9s %9s %9s %9s",
		nameWidth, "Method", "TP", "FP", "FN", "TN", "Val", "Precision", "Recall", "F1", "Accuracy", "AvgConf")
	fmt.Fprintln(out, headerText(header))
	for _, m := range methods {
		fmt.Fprintf(out, "  %-*s %5d %5d %5d %5d %5d %9s %9s %9s %9s %9s\n",
			nameWidth, m.Method, m.TP, m.FP, m.FN, m.TN, m.Validated,
			report.Number(m.Precision), report.Number(m.Recall), report.Number(m.F1),
			report.Number(m.Accuracy), report.Number(m.AvgConfidence))
	}
	fmt.Fprintln(out)
}

func writeAnalyzeJSON(path string, agg analyzeReport) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("unable to create directory for %s: %w", path, err)
		}
	}

	data, err := json.MarshalIndent(agg, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to marshal analysis JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("unable to write analysis JSON %s: %w", path, err)
	}
	return nil
}
