package lucyreport

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/davidmazza/lucyreport/internal/logging"
	"github.com/spf13/cobra"
)

func resetFlag(cmdFlag string) {
	flag := rootCmd.PersistentFlags().Lookup(cmdFlag)
	if flag == nil {
		return
	}
	_ = flag.Value.Set(flag.DefValue)
	flag.Changed = false
}

func resetCmdFlag(cmd *cobra.Command, cmdFlag string) {
	flag := cmd.Flags().Lookup(cmdFlag)
	if flag == nil {
		return
	}
	_ = flag.Value.Set(flag.DefValue)
	flag.Changed = false
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lucyreport.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// resetCLIState restores every flag the tests touch to its default so one
// invocation of the shared command tree cannot leak into the next.
func resetCLIState() {
	for _, name := range []string{"config", "debug", "log-file"} {
		resetFlag(name)
	}
	for _, name := range []string{"data", "field", "json"} {
		resetCmdFlag(analyzeCmd, name)
	}
	for _, name := range []string{"data", "out", "context-dir", "model", "format", "skip-ai", "plain"} {
		resetCmdFlag(reportCmd, name)
	}
	for _, name := range []string{"input", "format", "output-dir", "no-execute"} {
		resetCmdFlag(renderCmd, name)
	}
	rootCmd.SetArgs([]string{})
}

// execRoot runs the root command with the given arguments and returns the
// combined output. Flag and logging state is restored before each run and
// afterwards so invocations stay independent of each other.
func execRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetCLIState()
	t.Cleanup(func() {
		resetCLIState()
		_ = logging.Close()
	})

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	_, err := rootCmd.ExecuteC()
	return buf.String(), err
}

// TestRootCmd verifies running the root command with an invalid subcommand reports an error.
func TestRootCmd(t *testing.T) {
	out, err := execRoot(t, "nonexistent")
	if err == nil {
		t.Error("Expected an error for a nonexistent command, but got none")
	}

	expected := "unknown command \"nonexistent\" for \"lucyreport\""
	if !strings.Contains(out, expected) {
		t.Errorf("Expected output to contain '%s', but got '%s'", expected, out)
	}
}

func TestPersistentPreRunEUsesFlagValues(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "lucyreport.log")
	configPath := writeTempConfig(t, `{ "debug": false, "model": "gpt-5-mini" }`)

	prevCfgFile := cfgFile
	cfgFile = configPath
	t.Cleanup(func() { cfgFile = prevCfgFile })
	t.Cleanup(func() { _ = logging.Close() })

	for _, name := range []string{"debug", "log-file"} {
		resetFlag(name)
	}
	_ = rootCmd.PersistentFlags().Set("debug", "true")
	_ = rootCmd.PersistentFlags().Set("log-file", logPath)
	t.Cleanup(func() {
		for _, name := range []string{"debug", "log-file"} {
			resetFlag(name)
		}
	})

	if err := rootCmd.PersistentPreRunE(rootCmd, []string{}); err != nil {
		t.Fatalf("PersistentPreRunE error: %v", err)
	}

	if currentConfig == nil || currentConfig.ConfigPath != configPath {
		t.Fatalf("expected config loaded with path %s", configPath)
	}
	if !currentConfig.Debug {
		t.Fatalf("expected the debug flag to override the config file: %+v", currentConfig)
	}
	if currentConfig.LogFilePath() != logPath {
		t.Fatalf("expected log file %s, got %s", logPath, currentConfig.LogFilePath())
	}
	if currentConfig.PreferredModel() != "gpt-5-mini" {
		t.Fatalf("expected model from config file, got %s", currentConfig.PreferredModel())
	}
}

// TestConfigCommandShowsMergedValues runs the config command end to end and
// checks the precedence chain: a changed flag beats the config file, and a
// config value without a competing flag survives.
func TestConfigCommandShowsMergedValues(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "lucyreport.log")
	configPath := writeTempConfig(t, `{ "debug": false, "model": "gpt-5-mini" }`)

	out, err := execRoot(t, "--config", configPath, "--log-file", logPath, "--debug", "config")
	if err != nil {
		t.Fatalf("ExecuteC error: %v", err)
	}

	if !strings.Contains(out, "Config file: "+configPath) {
		t.Fatalf("expected config file path in output, got %s", out)
	}
	if !strings.Contains(out, "Debug:           true") {
		t.Fatalf("expected the debug flag to win over the config file, got %s", out)
	}
	if !strings.Contains(out, "Preferred model: gpt-5-mini") {
		t.Fatalf("expected model from config file, got %s", out)
	}
	if !strings.Contains(out, "Log file:        "+logPath) {
		t.Fatalf("expected log file from flag, got %s", out)
	}
}

// TestConfigCommandDefaults verifies the no-config-file path falls back to
// the documented defaults instead of erroring.
func TestConfigCommandDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "lucyreport.log")

	out, err := execRoot(t, "--log-file", logPath, "config")
	if err != nil {
		t.Fatalf("ExecuteC error: %v", err)
	}

	if !strings.Contains(out, "No config file loaded (using defaults).") {
		t.Fatalf("expected defaults banner, got %s", out)
	}
	if !strings.Contains(out, "Preferred model: gpt-5.2") {
		t.Fatalf("expected default model, got %s", out)
	}
	if !strings.Contains(out, "Output dir:      reports") {
		t.Fatalf("expected default output dir, got %s", out)
	}
}

// TestExplicitConfigMissing verifies that naming a missing config file on
// the command line is an error rather than a silent fall back to defaults.
func TestExplicitConfigMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.json")

	_, err := execRoot(t, "--config", missing, "config")
	if err == nil {
		t.Fatal("expected an error for an explicitly named missing config file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected a not-exist error, got %v", err)
	}
}
