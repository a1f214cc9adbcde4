// internal/cli/config.go
package lucyreport

import (
	"github.com/davidmazza/lucyreport/internal/appconfig"
	"github.com/spf13/cobra"
)

// configCmd displays the merged configuration a run would use.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Long:  `Show config settings ensuring that the JSON config is loaded properly and overridden by flags accordingly.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		appconfig.ShowConfig(cmd.OutOrStdout(), configFileUsed(), GetConfig(), appconfig.Default())
	},
}

func configFileUsed() string {
	if cfg := GetConfig(); cfg != nil {
		return cfg.ConfigPath
	}
	return ""
}

func init() {
	rootCmd.AddCommand(configCmd)
}
