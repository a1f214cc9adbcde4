// internal/dataset/metrics.go
package dataset

import (
	"sort"
	"time"

	"github.com/davidmazza/lucyreport/internal/util"
)

// MethodMetrics is the confusion-matrix summary for one prediction method
// over validated rows.
type MethodMetrics struct {
	Method        string  `json:"method"`
	TP            int     `json:"tp"`
	FP            int     `json:"fp"`
	FN            int     `json:"fn"`
	TN            int     `json:"tn"`
	Validated     int     `json:"validated"`
	Precision     float64 `json:"precision"`
	Recall        float64 `json:"recall"`
	F1            float64 `json:"f1"`
	Accuracy      float64 `json:"accuracy"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// FieldMetrics groups per-method metrics under one extraction field.
type FieldMetrics struct {
	Field   string          `json:"field"`
	Methods []MethodMetrics `json:"methods"`
}

// Summary condenses an export into the headline numbers the report and
// the AI prompts describe.
type Summary struct {
	Rows             int            `json:"rows"`
	Validated        int            `json:"validated"`
	ValidationRate   float64        `json:"validation_rate"`
	Start            time.Time      `json:"start"`
	End              time.Time      `json:"end"`
	MethodCounts     map[string]int `json:"method_counts"`
	MethodTypeCounts map[string]int `json:"method_type_counts"`
	FieldCounts      map[string]int `json:"field_counts"`
	CountryCounts    map[string]int `json:"country_counts"`
}

// Timeline is the daily event volume split by method bucket, aligned so
// Series values index into Dates.
type Timeline struct {
	Dates  []string         `json:"dates"`
	Series map[string][]int `json:"series"`
}

// CountryCell is the share of true positives among validated rows for one
// country and method bucket.
type CountryCell struct {
	Country  string  `json:"country"`
	Method   string  `json:"method"`
	Accuracy float64 `json:"accuracy"`
	Count    int     `json:"count"`
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// computeMetrics folds validated records into one MethodMetrics.
func computeMetrics(method string, records []Record) MethodMetrics {
	m := MethodMetrics{Method: method}
	confidenceSum := 0.0
	confidenceCount := 0
	for _, r := range records {
		if !r.IsValidated() {
			continue
		}
		m.Validated++
		switch r.Comparison {
		case "TP":
			m.TP++
		case "FP":
			m.FP++
		case "FN":
			m.FN++
		case "TN":
			m.TN++
		}
		if r.Confidence != nil {
			confidenceSum += *r.Confidence
			confidenceCount++
		}
	}

	m.Precision = ratio(m.TP, m.TP+m.FP)
	m.Recall = ratio(m.TP, m.TP+m.FN)
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	m.Accuracy = ratio(m.TP+m.TN, m.Validated)
	if confidenceCount > 0 {
		m.AvgConfidence = confidenceSum / float64(confidenceCount)
	}
	return m
}

// MetricsByMethod computes per-method metrics over validated rows, sorted
// by method name. Methods with no validated rows are omitted.
func MetricsByMethod(d *Dataset) []MethodMetrics {
	groups := make(map[string][]Record)
	for _, r := range d.Records {
		if r.IsValidated() {
			groups[r.Method] = append(groups[r.Method], r)
		}
	}

	methods := make([]string, 0, len(groups))
	for method := range groups {
		methods = append(methods, method)
	}
	sort.Strings(methods)

	out := make([]MethodMetrics, 0, len(methods))
	for _, method := range methods {
		out = append(out, computeMetrics(method, groups[method]))
	}
	return out
}

// MetricsByFieldAndMethod computes the same metrics per extraction field,
// sorted by field then method.
func MetricsByFieldAndMethod(d *Dataset) []FieldMetrics {
	byField := make(map[string][]Record)
	for _, r := range d.Records {
		if r.IsValidated() {
			byField[r.FieldName] = append(byField[r.FieldName], r)
		}
	}

	fields := make([]string, 0, len(byField))
	for field := range byField {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	out := make([]FieldMetrics, 0, len(fields))
	for _, field := range fields {
		sub := &Dataset{Records: byField[field]}
		out = append(out, FieldMetrics{Field: field, Methods: MetricsByMethod(sub)})
	}
	return out
}

// Summarize condenses the export into headline counts and distributions.
func Summarize(d *Dataset) Summary {
	s := Summary{
		Rows:             d.Len(),
		MethodCounts:     make(map[string]int),
		MethodTypeCounts: make(map[string]int),
		FieldCounts:      make(map[string]int),
		CountryCounts:    make(map[string]int),
	}
	for _, r := range d.Records {
		s.Validated += util.BoolToInt(r.IsValidated())
		s.MethodCounts[r.Method]++
		s.MethodTypeCounts[r.MethodType]++
		s.FieldCounts[r.FieldName]++
		if r.Country != "" {
			s.CountryCounts[r.Country]++
		}
	}
	s.ValidationRate = ratio(s.Validated, s.Rows)
	if start, end, ok := d.DateRange(); ok {
		s.Start, s.End = start, end
	}
	return s
}

// DailyCounts builds the daily volume timeline split by method bucket.
func DailyCounts(d *Dataset) Timeline {
	perDay := make(map[string]map[string]int)
	types := make(map[string]struct{})
	for _, r := range d.Records {
		date := r.Date()
		if perDay[date] == nil {
			perDay[date] = make(map[string]int)
		}
		perDay[date][r.MethodType]++
		types[r.MethodType] = struct{}{}
	}

	tl := Timeline{Series: make(map[string][]int)}
	for date := range perDay {
		tl.Dates = append(tl.Dates, date)
	}
	sort.Strings(tl.Dates)

	for methodType := range types {
		counts := make([]int, len(tl.Dates))
		for i, date := range tl.Dates {
			counts[i] = perDay[date][methodType]
		}
		tl.Series[methodType] = counts
	}
	return tl
}

// CountryAccuracy computes the true-positive share of validated rows per
// country and method bucket, sorted by country then method. Rows without
// a country are ignored.
func CountryAccuracy(d *Dataset) []CountryCell {
	type key struct{ country, method string }
	totals := make(map[key]int)
	correct := make(map[key]int)
	for _, r := range d.Records {
		if !r.IsValidated() || r.Country == "" {
			continue
		}
		k := key{r.Country, r.MethodType}
		totals[k]++
		correct[k] += util.BoolToInt(r.IsCorrect())
	}

	cells := make([]CountryCell, 0, len(totals))
	for k, total := range totals {
		cells = append(cells, CountryCell{
			Country:  k.country,
			Method:   k.method,
			Accuracy: ratio(correct[k], total),
			Count:    total,
		})
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Country != cells[j].Country {
			return cells[i].Country < cells[j].Country
		}
		return cells[i].Method < cells[j].Method
	})
	return cells
}
