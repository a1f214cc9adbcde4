package appconfig

import (
	"fmt"
	"io"
)

// ShowConfig prints the current configuration summary.
func ShowConfig(out io.Writer, file string, cfg *Config, fallback Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	if cfg == nil {
		cfg = &fallback
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Debug:           %v\n", cfg.Debug)
	fmt.Fprintf(out, "  Plain output:    %v\n", cfg.Plain)
	fmt.Fprintf(out, "  Skip AI:         %v\n", cfg.SkipAI)
	fmt.Fprintf(out, "  Data path:       %s\n", orUnset(cfg.DataPath))
	fmt.Fprintf(out, "  Output dir:      %s\n", cfg.OutputDirPath())
	fmt.Fprintf(out, "  Context dir:     %s\n", cfg.ContextDirPath())
	fmt.Fprintf(out, "  Preferred model: %s\n", cfg.PreferredModel())
	fmt.Fprintf(out, "  Temperature:     %g\n", cfg.TemperatureValue())
	fmt.Fprintf(out, "  Invoke timeout:  %s\n", cfg.InvokeTimeout())
	fmt.Fprintf(out, "  Log file:        %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Report title:    %s\n", cfg.Title())
}

func orUnset(value string) string {
	if value == "" {
		return "(unset)"
	}
	return value
}
