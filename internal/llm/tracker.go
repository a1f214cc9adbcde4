// internal/llm/tracker.go
package llm

import "sync"

// CallRecord is one entry in the append-only model invocation log.
type CallRecord struct {
	Model     string `json:"model"`
	Succeeded bool   `json:"succeeded"`
}

// Tracker records which models were invoked during a run and whether each
// call produced usable text. The report reads it at the end to disclose
// the models that actually wrote its narrative sections. One tracker is
// created per run and handed to the generator; nothing persists between
// runs.
type Tracker struct {
	mu      sync.Mutex
	records []CallRecord
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Track appends one record to the log.
func (t *Tracker) Track(model string, succeeded bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = append(t.records, CallRecord{Model: model, Succeeded: succeeded})
}

// UsageStats returns the number of successful calls per model. Models whose
// every call failed do not appear.
func (t *Tracker) UsageStats() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := make(map[string]int)
	for _, r := range t.records {
		if r.Succeeded {
			stats[r.Model]++
		}
	}
	return stats
}

// PrimaryModel returns the model with the most successful calls, the one
// named by the report's disclosure section. Ties go to the model whose
// first successful call appears earliest in the log, so the result is
// stable for a given log. ok is false when no call succeeded.
func (t *Tracker) PrimaryModel() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	counts := make(map[string]int)
	firstSuccess := make(map[string]int)
	for i, r := range t.records {
		if !r.Succeeded {
			continue
		}
		if _, seen := firstSuccess[r.Model]; !seen {
			firstSuccess[r.Model] = i
		}
		counts[r.Model]++
	}

	best := ""
	bestCount := 0
	for model, count := range counts {
		if count > bestCount {
			best, bestCount = model, count
			continue
		}
		if count == bestCount && bestCount > 0 && firstSuccess[model] < firstSuccess[best] {
			best = model
		}
	}
	if bestCount == 0 {
		return "", false
	}
	return best, true
}

// Records returns a copy of the full log in append order.
func (t *Tracker) Records() []CallRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]CallRecord, len(t.records))
	copy(out, t.records)
	return out
}

// TotalCalls returns the number of recorded calls, failed ones included.
func (t *Tracker) TotalCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}

// SuccessfulCalls returns the number of recorded successful calls.
func (t *Tracker) SuccessfulCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, r := range t.records {
		if r.Succeeded {
			n++
		}
	}
	return n
}

// Reset empties the log.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = nil
}
