// internal/tokens/estimator_test.go
package tokens

import "testing"

// TestCountFallback verifies that a zero-value estimator, the shape used when
// the tiktoken encoding cannot be loaded, estimates by character count so the
// pipeline keeps working offline.
func TestCountFallback(t *testing.T) {
	var e *Estimator
	if got := e.Count("12345678"); got != 2 {
		t.Fatalf("nil estimator Count = %d, want 2", got)
	}

	empty := &Estimator{}
	if got := empty.Count("12345678"); got != 2 {
		t.Fatalf("fallback Count = %d, want 2", got)
	}
	if got := empty.Count(""); got != 0 {
		t.Fatalf("fallback Count(\"\") = %d, want 0", got)
	}
}

// TestEstimateMonotonic checks that longer texts never estimate fewer tokens,
// whichever backend Get resolved to.
func TestEstimateMonotonic(t *testing.T) {
	short := Estimate("validation metrics")
	long := Estimate("validation metrics for every extraction method in the export")
	if long < short {
		t.Fatalf("Estimate not monotonic: short=%d long=%d", short, long)
	}
	if short <= 0 {
		t.Fatalf("Estimate of non-empty text = %d, want > 0", short)
	}
}
