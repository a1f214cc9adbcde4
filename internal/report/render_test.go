// internal/report/render_test.go
package report

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestExpandFormats verifies the accepted format names, the html
// default, and the expansion of "all".
func TestExpandFormats(t *testing.T) {
	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{"", []string{"html"}, false},
		{"html", []string{"html"}, false},
		{"PDF", []string{"pdf"}, false},
		{"revealjs", []string{"revealjs"}, false},
		{"all", []string{"html", "pdf", "revealjs"}, false},
		{"docx", nil, true},
	}
	for _, tt := range tests {
		got, err := expandFormats(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("expandFormats(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("expandFormats(%q): %v", tt.in, err)
			continue
		}
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("expandFormats(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// TestRenderArgs verifies flag passthrough to the quarto command line.
func TestRenderArgs(t *testing.T) {
	opts := RenderOptions{Input: "report.qmd", OutputDir: "out", NoExecute: true}
	got := strings.Join(renderArgs(opts, "pdf"), " ")
	want := "render report.qmd --to pdf --output-dir out --no-execute"
	if got != want {
		t.Fatalf("args = %q, want %q", got, want)
	}

	bare := strings.Join(renderArgs(RenderOptions{Input: "report.qmd"}, "html"), " ")
	if bare != "render report.qmd --to html" {
		t.Fatalf("bare args = %q", bare)
	}
}

// TestRenderExternalMissingBinary verifies the wrapped error when quarto
// is not on PATH.
func TestRenderExternalMissingBinary(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	err := RenderExternal(context.Background(), RenderOptions{Input: "report.qmd"})
	if err == nil {
		t.Fatal("expected an error without quarto installed")
	}
	if !strings.Contains(err.Error(), "quarto not found on PATH") {
		t.Fatalf("error = %v", err)
	}
}

// TestRenderExternalInvokesQuarto runs the wrapper against a fake quarto
// binary that records its arguments, and checks one invocation per
// format for "all".
func TestRenderExternalInvokesQuarto(t *testing.T) {
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args.txt")
	script := "#!/bin/sh\necho \"$@\" >> " + argsFile + "\n"
	if err := os.WriteFile(filepath.Join(dir, "quarto"), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir)
	t.Setenv("OPENAI_API_KEY", "test-key")

	opts := RenderOptions{Input: "report.qmd", Format: "all", OutputDir: "out", NoExecute: true}
	if err := RenderExternal(context.Background(), opts); err != nil {
		t.Fatalf("RenderExternal: %v", err)
	}

	raw, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("reading recorded args: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	want := []string{
		"render report.qmd --to html --output-dir out --no-execute",
		"render report.qmd --to pdf --output-dir out --no-execute",
		"render report.qmd --to revealjs --output-dir out --no-execute",
	}
	if len(lines) != len(want) {
		t.Fatalf("invocations = %v", lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("invocation[%d] = %q, want %q", i, lines[i], want[i])
		}
	}
}

// TestRenderExternalFailure verifies that a non-zero quarto exit surfaces
// as a wrapped error carrying the command output.
func TestRenderExternalFailure(t *testing.T) {
	dir := t.TempDir()
	script := "#!/bin/sh\necho 'render blew up' >&2\nexit 3\n"
	if err := os.WriteFile(filepath.Join(dir, "quarto"), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir)
	t.Setenv("OPENAI_API_KEY", "test-key")

	err := RenderExternal(context.Background(), RenderOptions{Input: "report.qmd", Format: "html"})
	if err == nil {
		t.Fatal("expected an error from the failing render")
	}
	if !strings.Contains(err.Error(), "render blew up") {
		t.Fatalf("error = %v", err)
	}
}
