// internal/report/tables.go
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/davidmazza/lucyreport/internal/dataset"
	"github.com/davidmazza/lucyreport/internal/util"
)

// Table is one markdown table: an optional bold caption line, a header
// row, and data rows. Numeric cells are formatted before they get here.
type Table struct {
	Caption string
	Headers []string
	Rows    [][]string
}

// Markdown renders the table as a GitHub-style pipe table. An empty table
// renders as a fixed placeholder so report sections never go blank.
func (t Table) Markdown() string {
	var b strings.Builder
	if t.Caption != "" {
		fmt.Fprintf(&b, "**%s**\n\n", t.Caption)
	}
	if len(t.Rows) == 0 {
		b.WriteString("*No data available*")
		return b.String()
	}
	b.WriteString("| " + strings.Join(t.Headers, " | ") + " |\n")
	seps := make([]string, len(t.Headers))
	for i := range seps {
		seps[i] = "---"
	}
	b.WriteString("| " + strings.Join(seps, " | ") + " |\n")
	for _, row := range t.Rows {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Number formats a metric value for a table cell, rounded to 3 decimals
// with trailing zeros dropped.
func Number(v float64) string {
	return strconv.FormatFloat(util.RoundTo(v, 3), 'f', -1, 64)
}

var metricHeaders = []string{"Method", "TP", "FP", "FN", "TN", "Validated", "Precision", "Recall", "F1", "Accuracy", "Avg confidence"}

func metricRow(m dataset.MethodMetrics) []string {
	return []string{
		m.Method,
		strconv.Itoa(m.TP),
		strconv.Itoa(m.FP),
		strconv.Itoa(m.FN),
		strconv.Itoa(m.TN),
		strconv.Itoa(m.Validated),
		Number(m.Precision),
		Number(m.Recall),
		Number(m.F1),
		Number(m.Accuracy),
		Number(m.AvgConfidence),
	}
}

// MethodMetricsTable lays out per-method confusion metrics, one row per
// prediction method.
func MethodMetricsTable(caption string, methods []dataset.MethodMetrics) Table {
	t := Table{Caption: caption, Headers: metricHeaders}
	for _, m := range methods {
		t.Rows = append(t.Rows, metricRow(m))
	}
	return t
}

// FieldMetricsTable lays out the per-method metrics of a single
// extraction field.
func FieldMetricsTable(f dataset.FieldMetrics) Table {
	return MethodMetricsTable(fmt.Sprintf("Field: %s", f.Field), f.Methods)
}

// CountryAccuracyTable lays out true-positive share per country and
// method bucket.
func CountryAccuracyTable(caption string, cells []dataset.CountryCell) Table {
	t := Table{Caption: caption, Headers: []string{"Country", "Method", "Accuracy", "Validated"}}
	for _, c := range cells {
		t.Rows = append(t.Rows, []string{c.Country, c.Method, Number(c.Accuracy), strconv.Itoa(c.Count)})
	}
	return t
}
