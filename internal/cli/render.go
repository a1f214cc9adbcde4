// internal/cli/render.go
package lucyreport

import (
	"fmt"

	"github.com/davidmazza/lucyreport/internal/report"
	"github.com/spf13/cobra"
)

type renderOptions struct {
	input     string
	format    string
	outputDir string
	noExecute bool
}

var renderOpts renderOptions

// renderCmd shells out to Quarto for teams that keep a notebook alongside
// the generated report.
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a Quarto notebook to html, pdf or revealjs",
	Long: `Run quarto render on a .qmd notebook kept alongside the generated report.
Formats: html, pdf, revealjs or all. Requires the quarto binary on PATH.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if renderOpts.input == "" {
			return fmt.Errorf("input notebook is required (pass --input)")
		}
		opts := report.RenderOptions{
			Input:     renderOpts.input,
			Format:    renderOpts.format,
			OutputDir: renderOpts.outputDir,
			NoExecute: renderOpts.noExecute,
		}
		if err := report.RenderExternal(cmd.Context(), opts); err != nil {
			return err
		}
		cmd.Printf("Render finished for %s\n", renderOpts.input)
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVar(&renderOpts.input, "input", "", "Quarto notebook (.qmd) to render (required)")
	renderCmd.Flags().StringVar(&renderOpts.format, "format", "html", "Output format: html, pdf, revealjs or all")
	renderCmd.Flags().StringVar(&renderOpts.outputDir, "output-dir", "", "Optional output directory passed to quarto")
	renderCmd.Flags().BoolVar(&renderOpts.noExecute, "no-execute", false, "Skip notebook execution (use cached results)")

	rootCmd.AddCommand(renderCmd)
}
