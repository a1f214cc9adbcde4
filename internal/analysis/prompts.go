// internal/analysis/prompts.go
package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/davidmazza/lucyreport/internal/dataset"
)

// markdownStyleRules is appended to every markdown-producing prompt so the
// narrative sections share one voice.
const markdownStyleRules = `Formatting requirements:
- Use *italics* for method names (e.g. *azure_model*, *query-vat_number*), technical terms (e.g. *fallback*, *ensemble*), and system names
- Use bullet lists to organize related points
- Keep paragraphs short and readable; avoid walls of text
- Use **bold** sparingly to highlight key findings

IMPORTANT: format the answer in markdown (lists, italics, bold where useful).`

func buildDataSummaryPrompt(s dataset.Summary, contextText string) string {
	var b strings.Builder
	b.WriteString("Analyze the following invoice field-recognition data and provide a concise analytical summary in markdown.\n\n")
	b.WriteString("Context: data from a system that automatically extracts fields from invoices. ")
	b.WriteString("Each row is one extraction event carrying the prediction of one algorithm plus, where present, a human validation outcome.\n")
	writeContextBlock(&b, contextText)

	fmt.Fprintf(&b, "\nRows: %d\n", s.Rows)
	fmt.Fprintf(&b, "Validated rows: %d of %d (%.1f%%)\n", s.Validated, s.Rows, s.ValidationRate*100)
	if !s.Start.IsZero() {
		fmt.Fprintf(&b, "Period: %s to %s\n", s.Start.Format("2006-01-02"), s.End.Format("2006-01-02"))
	}
	writeCountBlock(&b, "Method distribution", s.MethodCounts)
	writeCountBlock(&b, "Field distribution", s.FieldCounts)
	writeCountBlock(&b, "Country distribution", s.CountryCounts)

	b.WriteString(`
Provide a structured analysis covering:
1. Data volume and coverage (validated vs total rows)
2. Overall behavior of the recognition methods
3. Notable observations about the validation process

`)
	b.WriteString(markdownStyleRules)
	return b.String()
}

func buildChartCommentaryPrompt(chart Chart, contextText string) string {
	var b strings.Builder
	b.WriteString("Write a professional analytical commentary for the following chart in markdown.\n\n")
	b.WriteString("Context: performance analysis of invoice field-recognition algorithms.")
	if f := strings.TrimSpace(chart.Field); f != "" {
		fmt.Fprintf(&b, " This chart shows data for the field **%s** only.", f)
	}
	b.WriteString("\n")
	writeContextBlock(&b, contextText)

	fmt.Fprintf(&b, "\nChart type: %s\n\nData shown:\n%s\n", chart.Description, chart.DataSummary)

	b.WriteString(`
The commentary must:
1. Open with 1-2 paragraphs describing the main patterns
2. Include a "Points of interest / anomalies" bullet list when applicable
3. Include an "Operational recommendations" bullet list when applicable

`)
	b.WriteString(markdownStyleRules)
	return b.String()
}

func buildErrorPatternsPrompt(field string, e errorBreakdown, contextText string) string {
	var b strings.Builder
	b.WriteString("Analyze the error patterns of an invoice field-recognition system and provide a concise analysis in markdown.\n\n")
	b.WriteString("Context: False Positive (FP) = predicted positive but actually negative. False Negative (FN) = predicted negative but actually positive.\n")
	if f := strings.TrimSpace(field); f != "" {
		fmt.Fprintf(&b, "\nAnalysis scoped to field: **%s**\nValidated rows for this field: %d\n", f, e.Validated)
	}
	writeContextBlock(&b, contextText)

	b.WriteString("\nFalse positives by method:\n")
	b.WriteString(formatMethodCounts(e.FPByMethod, "No false positives"))
	b.WriteString("\n\nFalse negatives by method:\n")
	b.WriteString(formatMethodCounts(e.FNByMethod, "No false negatives"))
	fmt.Fprintf(&b, "\n\nAverage confidence on FP: %s\n", formatConfidence(e.FPAvgConfidence))
	fmt.Fprintf(&b, "Average confidence on FN: %s\n", formatConfidence(e.FNAvgConfidence))

	b.WriteString(`
Provide a structured analysis that:
1. Identifies which methods accumulate the most errors (FP or FN)
2. Discusses whether confidence correlates with the errors
3. Suggests improvements or areas needing attention

`)
	b.WriteString(markdownStyleRules)
	return b.String()
}

func buildSectionPrompt(topic, facts, contextText string) string {
	var b strings.Builder
	b.WriteString("Write a professional report section (2-3 paragraphs) about:\n\n")
	fmt.Fprintf(&b, "Topic: %s\n\nData context:\n%s\n", topic, facts)
	writeContextBlock(&b, contextText)
	b.WriteString(`
The text should be:
- Professional and clear
- Grounded in the data provided
- Logically structured

IMPORTANT: write plain prose only, with no asterisks, hash marks, or other markdown symbols.`)
	return b.String()
}

func writeContextBlock(b *strings.Builder, contextText string) {
	if strings.TrimSpace(contextText) == "" {
		return
	}
	b.WriteString("\n=== DOMAIN CONTEXT AND DOCUMENTATION ===\n")
	b.WriteString(contextText)
	b.WriteString("\n")
}

// writeCountBlock renders a labeled count distribution, largest first.
func writeCountBlock(b *strings.Builder, label string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", label)
	for _, line := range sortedCountLines(counts) {
		fmt.Fprintf(b, "  %s\n", line)
	}
}

func formatMethodCounts(counts map[string]int, empty string) string {
	if len(counts) == 0 {
		return empty
	}
	return "  " + strings.Join(sortedCountLines(counts), "\n  ")
}

// sortedCountLines orders "name: count" lines by descending count, then
// name, so the prompt reads like a value_counts listing.
func sortedCountLines(counts map[string]int) []string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("%s: %d", name, counts[name]))
	}
	return lines
}

func formatConfidence(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.3f", *v)
}
