// internal/cli/root.go
package lucyreport

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/davidmazza/lucyreport/internal/appconfig"
	"github.com/davidmazza/lucyreport/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile       string
	currentConfig *appconfig.Config
	appVersion    = "dev"
	appCommit     = "none"
	appDate       = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lucyreport",
	Short: "lucyreport — validation reports for Lucy invoice field extraction",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := ensureConfigLoaded()
		if err != nil {
			return err
		}

		// If the user did NOT set a flag, copy the config value into the
		// flag so both pflags and viper reflect the same, final value.
		if !cmd.Flags().Changed("debug") {
			_ = cmd.Flags().Set("debug", strconv.FormatBool(cfg.Debug))
		}
		if !cmd.Flags().Changed("log-file") {
			_ = cmd.Flags().Set("log-file", cfg.LogFilePath())
		}

		cfg.Debug = viper.GetBool("debug")
		cfg.LogFile = viper.GetString("logFile")
		currentConfig = &cfg

		if err := logging.Init(cfg.LogFilePath()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.SetDebug(cfg.Debug)

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate)

	defer logging.Close()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default config/lucyreport.json)")

	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging and --debug dumps")
	rootCmd.PersistentFlags().String("log-file", "", "path to the log file")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("logFile", rootCmd.PersistentFlags().Lookup("log-file"))
}

// ensureConfigLoaded reads the config file named by --config, or the
// default locations when the flag is unset. A missing file is only an
// error when the user asked for one explicitly; otherwise the built-in
// defaults apply and every setting can still arrive via flags.
func ensureConfigLoaded() (appconfig.Config, error) {
	cfg, err := appconfig.Load(cfgFile)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, os.ErrNotExist) && cfgFile == "" {
		return appconfig.Default(), nil
	}
	return appconfig.Config{}, err
}

// GetConfig returns the loaded application configuration for other packages.
func GetConfig() *appconfig.Config {
	return currentConfig
}

// DebugEnabled returns true if debug mode is enabled.
func DebugEnabled() bool { return viper.GetBool("debug") }

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}
