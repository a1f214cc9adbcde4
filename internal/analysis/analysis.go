// internal/analysis/analysis.go
// Package analysis turns validation metrics into report narrative. Each
// operation builds a prompt from the computed facts plus retrieved domain
// context, hands it to the model fallback chain, and degrades to fixed
// placeholder text instead of failing the report when no model answers.
package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/davidmazza/lucyreport/internal/dataset"
	"github.com/davidmazza/lucyreport/internal/llm"
	"github.com/davidmazza/lucyreport/internal/util"
)

const (
	notConfiguredText = "AI analysis unavailable (API key not configured)."
	failureTextFormat = "AI analysis unavailable (error: %s)."

	// maxErrorChars bounds the error detail embedded in placeholder text.
	maxErrorChars = 100

	// exhaustedReason is the failure detail when the whole candidate chain
	// was tried and nobody produced text.
	exhaustedReason = "every configured model failed or timed out"
)

// TextGenerator is the slice of llm.Generator the analyzer needs.
type TextGenerator interface {
	GenerateText(ctx context.Context, cfg *llm.ModelConfig, prompt string) (string, bool)
}

// Chart describes one rendered chart for commentary purposes: what kind of
// chart it is, a textual dump of the plotted values, and the field filter
// applied to the underlying data (blank for all fields).
type Chart struct {
	Description string
	DataSummary string
	Field       string
}

// Analyzer produces the narrative sections of a report. A nil model
// configuration means no provider credential was found; every operation
// then degrades without attempting a call.
type Analyzer struct {
	gen        TextGenerator
	cfg        *llm.ModelConfig
	contextDir string
}

func New(gen TextGenerator, cfg *llm.ModelConfig, contextDir string) *Analyzer {
	return &Analyzer{gen: gen, cfg: cfg, contextDir: contextDir}
}

// Configured reports whether the analyzer can reach a model at all.
func (a *Analyzer) Configured() bool {
	return a != nil && a.gen != nil && a.cfg != nil
}

// DataSummary writes the executive overview of the dataset. It always
// returns usable prose: placeholder text stands in when no model is
// configured or the whole chain fails.
func (a *Analyzer) DataSummary(ctx context.Context, s dataset.Summary) string {
	if !a.Configured() {
		return notConfiguredText
	}
	domain := RetrieveContext(a.contextDir, KindDataSummary, "")
	text, ok := a.gen.GenerateText(ctx, a.cfg, buildDataSummaryPrompt(s, domain))
	if !ok {
		return fmt.Sprintf(failureTextFormat, util.TruncateRunes(exhaustedReason, maxErrorChars))
	}
	return text
}

// ChartCommentary writes an analytical comment for one chart. When not ok
// the report omits the commentary block entirely, so there is no
// placeholder here.
func (a *Analyzer) ChartCommentary(ctx context.Context, chart Chart) (string, bool) {
	if !a.Configured() {
		return "", false
	}
	domain := RetrieveContext(a.contextDir, KindChartCommentary, chart.Field)
	return a.gen.GenerateText(ctx, a.cfg, buildChartCommentaryPrompt(chart, domain))
}

// ErrorPatterns analyzes the false positives and false negatives in the
// validated slice of records, optionally scoped to a single field. With no
// validated rows in scope it answers with fixed text and never touches a
// model.
func (a *Analyzer) ErrorPatterns(ctx context.Context, records []dataset.Record, field string) (string, bool) {
	breakdown := buildErrorBreakdown(records, field)
	if breakdown.Validated == 0 {
		return noValidatedDataText(field), true
	}
	if !a.Configured() {
		return "", false
	}
	domain := RetrieveContext(a.contextDir, KindErrorPatterns, field)
	return a.gen.GenerateText(ctx, a.cfg, buildErrorPatternsPrompt(field, breakdown, domain))
}

// SectionText writes a free-form prose section from a topic and a block of
// pre-computed facts. The result carries no markdown so it can be dropped
// into any surface.
func (a *Analyzer) SectionText(ctx context.Context, topic, facts string) (string, bool) {
	if !a.Configured() {
		return "", false
	}
	domain := RetrieveContext(a.contextDir, KindGeneral, "")
	return a.gen.GenerateText(ctx, a.cfg, buildSectionPrompt(topic, facts, domain))
}

func noValidatedDataText(field string) string {
	if f := strings.TrimSpace(field); f != "" {
		return fmt.Sprintf("No validated data available for field '%s' for error analysis.", f)
	}
	return "No validated data available for error analysis."
}

// errorBreakdown aggregates the misclassified rows feeding the error
// patterns prompt.
type errorBreakdown struct {
	Validated       int
	FPByMethod      map[string]int
	FNByMethod      map[string]int
	FPAvgConfidence *float64
	FNAvgConfidence *float64
}

func buildErrorBreakdown(records []dataset.Record, field string) errorBreakdown {
	field = strings.TrimSpace(field)
	e := errorBreakdown{
		FPByMethod: make(map[string]int),
		FNByMethod: make(map[string]int),
	}
	var fpSum, fnSum float64
	var fpN, fnN int
	for _, r := range records {
		if !r.IsValidated() {
			continue
		}
		if field != "" && r.FieldName != field {
			continue
		}
		e.Validated++
		switch r.Comparison {
		case "FP":
			e.FPByMethod[r.Method]++
			if r.Confidence != nil {
				fpSum += *r.Confidence
				fpN++
			}
		case "FN":
			e.FNByMethod[r.Method]++
			if r.Confidence != nil {
				fnSum += *r.Confidence
				fnN++
			}
		}
	}
	if fpN > 0 {
		avg := fpSum / float64(fpN)
		e.FPAvgConfidence = &avg
	}
	if fnN > 0 {
		avg := fnSum / float64(fnN)
		e.FNAvgConfidence = &avg
	}
	return e
}
