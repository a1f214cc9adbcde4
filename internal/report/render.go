// internal/report/render.go
package report

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/davidmazza/lucyreport/internal/logging"
)

// quartoBinary is the external renderer, resolved on PATH.
const quartoBinary = "quarto"

// externalFormats are the outputs quarto can produce for us.
var externalFormats = []string{"html", "pdf", "revealjs"}

// RenderOptions selects what the external renderer should produce.
// Format accepts one of the known formats or "all"; a blank format means
// html.
type RenderOptions struct {
	Input     string
	Format    string
	OutputDir string
	NoExecute bool
}

// RenderExternal shells out to `quarto render` for teams that keep a
// Quarto notebook next to their exports. A missing binary or a failed
// render is an error; a missing OPENAI_API_KEY only logs a warning, since
// executed notebooks would silently fall back to placeholder AI sections.
func RenderExternal(ctx context.Context, opts RenderOptions) error {
	if strings.TrimSpace(opts.Input) == "" {
		return fmt.Errorf("render requires an input document")
	}
	formats, err := expandFormats(opts.Format)
	if err != nil {
		return err
	}
	if _, err := exec.LookPath(quartoBinary); err != nil {
		return fmt.Errorf("quarto not found on PATH: %w", err)
	}
	if os.Getenv("OPENAI_API_KEY") == "" {
		logging.LogEvent("OPENAI_API_KEY is not set; executed renders will carry placeholder AI sections")
	}

	for _, format := range formats {
		if err := renderOne(ctx, opts, format); err != nil {
			return err
		}
	}
	return nil
}

func expandFormats(format string) ([]string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		return []string{"html"}, nil
	}
	if format == "all" {
		return append([]string(nil), externalFormats...), nil
	}
	for _, known := range externalFormats {
		if format == known {
			return []string{format}, nil
		}
	}
	return nil, fmt.Errorf("unsupported render format %q (want html, pdf, revealjs, or all)", format)
}

func renderArgs(opts RenderOptions, format string) []string {
	args := []string{"render", opts.Input, "--to", format}
	if opts.OutputDir != "" {
		args = append(args, "--output-dir", opts.OutputDir)
	}
	if opts.NoExecute {
		args = append(args, "--no-execute")
	}
	return args
}

func renderOne(ctx context.Context, opts RenderOptions, format string) error {
	args := renderArgs(opts, format)
	logging.LogEvent("rendering %s to %s", opts.Input, format)

	cmd := exec.CommandContext(ctx, quartoBinary, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(out))
		if detail != "" {
			return fmt.Errorf("quarto render to %s failed: %w: %s", format, err, detail)
		}
		return fmt.Errorf("quarto render to %s failed: %w", format, err)
	}
	return nil
}
