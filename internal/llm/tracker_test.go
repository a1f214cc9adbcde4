// internal/llm/tracker_test.go
package llm

import "testing"

// TestTrackerUsageStats verifies that usage statistics count successful
// calls only, that models whose every call failed stay absent, and that
// the per-model counts sum to the successful-call total.
func TestTrackerUsageStats(t *testing.T) {
	tr := NewTracker()
	tr.Track("gpt-5.2", true)
	tr.Track("gpt-5.2", true)
	tr.Track("gemini-3-pro-preview", true)
	tr.Track("gpt-5-mini", false)

	stats := tr.UsageStats()
	if stats["gpt-5.2"] != 2 {
		t.Fatalf("gpt-5.2 count = %d, want 2", stats["gpt-5.2"])
	}
	if stats["gemini-3-pro-preview"] != 1 {
		t.Fatalf("gemini count = %d, want 1", stats["gemini-3-pro-preview"])
	}
	if _, present := stats["gpt-5-mini"]; present {
		t.Fatal("model with only failed calls must not appear in usage stats")
	}

	sum := 0
	for _, n := range stats {
		sum += n
	}
	if sum != tr.SuccessfulCalls() {
		t.Fatalf("stats sum %d != successful calls %d", sum, tr.SuccessfulCalls())
	}
	if tr.TotalCalls() != 4 {
		t.Fatalf("TotalCalls = %d, want 4", tr.TotalCalls())
	}
}

// TestTrackerPrimaryModel verifies the disclosure choice: the model with
// the most successful calls wins, ties go to the model that succeeded
// first, and an all-failure log yields no primary at all.
func TestTrackerPrimaryModel(t *testing.T) {
	tr := NewTracker()
	if _, ok := tr.PrimaryModel(); ok {
		t.Fatal("empty tracker must have no primary model")
	}

	tr.Track("gpt-5.2", true)
	tr.Track("gemini-3-pro-preview", true)
	tr.Track("gemini-3-pro-preview", true)

	primary, ok := tr.PrimaryModel()
	if !ok || primary != "gemini-3-pro-preview" {
		t.Fatalf("primary = %q ok=%v, want gemini-3-pro-preview", primary, ok)
	}

	// Tie between the two models: gpt-5.2 succeeded first.
	tr.Track("gpt-5.2", true)
	primary, ok = tr.PrimaryModel()
	if !ok || primary != "gpt-5.2" {
		t.Fatalf("tie primary = %q ok=%v, want gpt-5.2", primary, ok)
	}

	failed := NewTracker()
	failed.Track("gpt-5.2", false)
	failed.Track("gpt-5.2", false)
	if _, ok := failed.PrimaryModel(); ok {
		t.Fatal("all-failure tracker must have no primary model")
	}
}

// TestTrackerRecordsCopy verifies that the log handed to callers is a
// copy, so report code cannot corrupt the internal state.
func TestTrackerRecordsCopy(t *testing.T) {
	tr := NewTracker()
	tr.Track("gpt-5.2", true)

	records := tr.Records()
	if len(records) != 1 {
		t.Fatalf("records len = %d, want 1", len(records))
	}
	records[0].Model = "tampered"

	fresh := tr.Records()
	if fresh[0].Model != "gpt-5.2" {
		t.Fatalf("internal log was mutated through the returned slice: %q", fresh[0].Model)
	}
}

// TestTrackerReset verifies that Reset returns the tracker to its initial
// state: no records, no stats, no primary.
func TestTrackerReset(t *testing.T) {
	tr := NewTracker()
	tr.Track("gpt-5.2", true)
	tr.Track("gemini-3-pro-preview", false)

	tr.Reset()

	if tr.TotalCalls() != 0 || tr.SuccessfulCalls() != 0 {
		t.Fatalf("after reset: total=%d successful=%d, want 0/0", tr.TotalCalls(), tr.SuccessfulCalls())
	}
	if len(tr.UsageStats()) != 0 {
		t.Fatal("after reset: usage stats must be empty")
	}
	if _, ok := tr.PrimaryModel(); ok {
		t.Fatal("after reset: no primary model expected")
	}
	if len(tr.Records()) != 0 {
		t.Fatal("after reset: records must be empty")
	}
}
