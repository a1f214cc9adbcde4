package lucyreport

import (
	"path/filepath"
	"strings"
	"testing"
)

// TestRenderCommandRequiresInput verifies the render command refuses to
// run without a notebook path.
func TestRenderCommandRequiresInput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "lucyreport.log")

	_, err := execRoot(t, "--log-file", logPath, "render")
	if err == nil || !strings.Contains(err.Error(), "input notebook is required") {
		t.Fatalf("expected a missing-input error, got %v", err)
	}
}
