// internal/cli/models.go
package lucyreport

import (
	"errors"

	"github.com/davidmazza/lucyreport/internal/llm"
	"github.com/fatih/color"
	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"
)

var (
	readyText   = color.New(color.FgGreen).SprintFunc()
	missingText = color.New(color.FgRed).SprintFunc()
)

// modelsCmd prints the fallback chain with per-provider credential status
// and the configuration a report run would resolve right now.
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show the model fallback chain and credential status",
	Long: `List the models a report run would try, in order, together with the
environment variable each provider reads its credential from and whether
that credential is currently present.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appCfg := GetConfig()
		preferred := appCfg.PreferredModel()

		entries := llm.ChainStatus(preferred)
		nameWidth := 0
		for _, e := range entries {
			if len(e.Model) > nameWidth {
				nameWidth = len(e.Model)
			}
		}

		cmd.Println("Fallback chain (first ready model wins):")
		for i, e := range entries {
			status := readyText("ready")
			if !e.Configured {
				status = missingText("missing " + e.CredentialEnv)
			}
			cmd.Printf("  %d. %-*s  %-6s  %s\n", i+1, nameWidth, e.Model, string(e.Provider), status)
		}
		cmd.Println()

		modelCfg, err := llm.Resolve(preferred, appCfg.TemperatureValue())
		if err != nil {
			if errors.Is(err, llm.ErrNotConfigured) {
				cmd.Println(missingText("No provider is configured; narrative sections will degrade to placeholder text."))
				return nil
			}
			return err
		}

		cmd.Printf("Resolved primary: %s (%s, %d candidate(s))\n", modelCfg.Model, modelCfg.Provider, len(modelCfg.Candidates))
		if DebugEnabled() {
			pp.Println(resolvedDump(modelCfg))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

// resolvedDebug mirrors the resolved configuration for dumping, with the
// credentials blanked so a debug dump never prints an API key.
type resolvedDebug struct {
	Model       string
	Temperature float64
	Provider    llm.ProviderClass
	Candidates  []llm.Candidate
}

func resolvedDump(cfg *llm.ModelConfig) resolvedDebug {
	out := resolvedDebug{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		Provider:    cfg.Provider,
		Candidates:  make([]llm.Candidate, len(cfg.Candidates)),
	}
	for i, cand := range cfg.Candidates {
		cand.APIKey = "[redacted]"
		out.Candidates[i] = cand
	}
	return out
}
