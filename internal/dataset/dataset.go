// internal/dataset/dataset.go
// Package dataset loads and prepares Lucy validation exports. An export is
// a CSV of extraction events; preparation derives the per-row flags and
// method buckets every downstream metric relies on.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/davidmazza/lucyreport/internal/logging"
)

// Record is one extraction event from a Lucy export.
type Record struct {
	Sent       time.Time
	FieldName  string
	Method     string
	MethodType string
	Comparison string // TP, FP, FN, TN, or empty when not yet validated
	Confidence *float64
	Country    string
}

// IsValidated reports whether a human outcome exists for the row.
func (r Record) IsValidated() bool { return r.Comparison != "" }

// IsCorrect reports whether the row was validated as a true positive.
func (r Record) IsCorrect() bool { return r.Comparison == "TP" }

// Date returns the row's calendar date in ISO form.
func (r Record) Date() string { return r.Sent.Format("2006-01-02") }

// Dataset is a prepared export plus load bookkeeping.
type Dataset struct {
	Path    string
	Records []Record
	Dropped int
}

// timeLayouts are the timestamp shapes seen across Lucy exports.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// LoadCSV reads and prepares a Lucy export. A file without the
// datetime_sent column is rejected as not being a Lucy export. Rows whose
// timestamp cannot be parsed or whose field name is blank are dropped with
// a logged count; a bad confidence value only blanks that cell.
func LoadCSV(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open export %q: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("could not read export header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	if _, ok := cols["datetime_sent"]; !ok {
		return nil, fmt.Errorf("%q is not a Lucy export: missing datetime_sent column", path)
	}
	for _, required := range []string{"field_name", "method_pred"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("export %q missing required column %q", path, required)
		}
	}

	ds := &Dataset{Path: path}
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("could not read export row %d: %w", line+1, err)
		}
		line++

		rec, ok := prepareRow(row, cols)
		if !ok {
			ds.Dropped++
			continue
		}
		ds.Records = append(ds.Records, rec)
	}

	if ds.Dropped > 0 {
		logging.LogEvent("dropped %d unusable rows while loading %s", ds.Dropped, path)
	}
	return ds, nil
}

// prepareRow turns a raw CSV row into a Record, deriving the validation
// flags and method bucket.
func prepareRow(row []string, cols map[string]int) (Record, bool) {
	cell := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	sent, ok := parseTimestamp(cell("datetime_sent"))
	if !ok {
		return Record{}, false
	}
	field := cell("field_name")
	if field == "" {
		return Record{}, false
	}

	method := cell("method_pred")
	rec := Record{
		Sent:       sent,
		FieldName:  field,
		Method:     method,
		MethodType: CategorizeMethod(method),
		Comparison: strings.ToUpper(cell("comparison")),
		Country:    cell("country"),
	}

	if raw := cell("confidence"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			rec.Confidence = &v
		}
	}
	return rec, true
}

func parseTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CategorizeMethod buckets a prediction method by name: ML for the model
// family (azure, model, ml), Query for lookup methods, Other for the rest,
// Unknown for a blank name.
func CategorizeMethod(method string) string {
	m := strings.ToLower(strings.TrimSpace(method))
	if m == "" {
		return "Unknown"
	}
	switch {
	case strings.Contains(m, "azure"), strings.Contains(m, "model"), strings.Contains(m, "ml"):
		return "ML"
	case strings.Contains(m, "query"):
		return "Query"
	case strings.Contains(m, "similarity"), strings.Contains(m, "logo"):
		return "Other"
	default:
		return "Other"
	}
}

// Len returns the number of prepared rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// FieldNames returns the distinct field names in sorted order.
func (d *Dataset) FieldNames() []string {
	seen := make(map[string]struct{})
	for _, r := range d.Records {
		seen[r.FieldName] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FilterByField returns a dataset containing only rows for the given
// field. The filter is case-insensitive on the field name.
func (d *Dataset) FilterByField(field string) *Dataset {
	want := strings.ToLower(strings.TrimSpace(field))
	out := &Dataset{Path: d.Path}
	for _, r := range d.Records {
		if strings.ToLower(r.FieldName) == want {
			out.Records = append(out.Records, r)
		}
	}
	return out
}

// DateRange returns the earliest and latest timestamps in the export.
// ok is false for an empty dataset.
func (d *Dataset) DateRange() (start, end time.Time, ok bool) {
	if d.Len() == 0 {
		return time.Time{}, time.Time{}, false
	}
	start, end = d.Records[0].Sent, d.Records[0].Sent
	for _, r := range d.Records[1:] {
		if r.Sent.Before(start) {
			start = r.Sent
		}
		if r.Sent.After(end) {
			end = r.Sent
		}
	}
	return start, end, true
}
