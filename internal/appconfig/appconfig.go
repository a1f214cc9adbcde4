// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/lucyreport.json"
	// legacyConfigPath is the path to the configuration file used in previous versions.
	legacyConfigPath = "lucyreport.json"
	// defaultInvokeTimeout is the wall-clock bound for a single model call.
	defaultInvokeTimeout = 60 * time.Second
	// defaultPreferredModel is the model tried first when the config omits one.
	defaultPreferredModel = "gpt-5.2"
	// defaultOutputDir is where generated reports are written.
	defaultOutputDir = "reports"
	// defaultContextDir is where domain documentation is looked up.
	defaultContextDir = "context"
	// defaultReportTitle heads the generated report when the config omits one.
	defaultReportTitle = "Lucy Validation Report"
)

// Config represents the top-level application configuration.
type Config struct {
	DataPath       string   `json:"data,omitempty"`
	OutputDir      string   `json:"output,omitempty"`
	ContextDir     string   `json:"context,omitempty"`
	Model          string   `json:"model,omitempty"`
	Temperature    *float64 `json:"temperature,omitempty"`
	TimeoutSeconds int      `json:"timeout,omitempty"`
	LogFile        string   `json:"logFile,omitempty"`
	ReportTitle    string   `json:"reportTitle,omitempty"`
	Debug          bool     `json:"debug"`
	SkipAI         bool     `json:"skipAI"`
	Plain          bool     `json:"plain"`
	ConfigPath     string   `json:"-"`
}

// configSchema describes the accepted shape of the configuration file. The
// raw file is checked against it before decoding so a typo surfaces as a
// validation message instead of a silently ignored key.
var configSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"data":        map[string]interface{}{"type": "string"},
		"output":      map[string]interface{}{"type": "string"},
		"context":     map[string]interface{}{"type": "string"},
		"model":       map[string]interface{}{"type": "string"},
		"temperature": map[string]interface{}{"type": "number", "minimum": 0},
		"timeout":     map[string]interface{}{"type": "integer", "minimum": 0},
		"logFile":     map[string]interface{}{"type": "string"},
		"reportTitle": map[string]interface{}{"type": "string"},
		"debug":       map[string]interface{}{"type": "boolean"},
		"skipAI":      map[string]interface{}{"type": "boolean"},
		"plain":       map[string]interface{}{"type": "boolean"},
	},
	"additionalProperties": false,
}

// InvokeTimeout returns the per-call timeout for model invocations, falling back to the default if not specified.
func (c Config) InvokeTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultInvokeTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PreferredModel returns the model tried first, applying a default if not set.
func (c Config) PreferredModel() string {
	if m := strings.TrimSpace(c.Model); m != "" {
		return m
	}
	return defaultPreferredModel
}

// TemperatureValue returns the sampling temperature, zero when unset.
func (c Config) TemperatureValue() float64 {
	if c.Temperature == nil {
		return 0
	}
	return *c.Temperature
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "lucyreport.log"
}

// OutputDirPath returns the directory generated reports are written to.
func (c Config) OutputDirPath() string {
	if dir := strings.TrimSpace(c.OutputDir); dir != "" {
		return dir
	}
	return defaultOutputDir
}

// ContextDirPath returns the directory scanned for domain documentation.
func (c Config) ContextDirPath() string {
	if dir := strings.TrimSpace(c.ContextDir); dir != "" {
		return dir
	}
	return defaultContextDir
}

// Title returns the report title, applying a default if not set.
func (c Config) Title() string {
	if t := strings.TrimSpace(c.ReportTitle); t != "" {
		return t
	}
	return defaultReportTitle
}

// Default returns the configuration used when no config file exists on disk.
func Default() Config {
	return Config{TimeoutSeconds: int(defaultInvokeTimeout.Seconds())}
}

// Load reads the application configuration from the specified path, with fallback to a legacy path.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	config, err := loadFromPath(path)
	if err == nil {
		config.ConfigPath = path
		return config, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		if path == DefaultConfigPath {
			config, legacyErr := loadFromPath(legacyConfigPath)
			if legacyErr == nil {
				config.ConfigPath = legacyConfigPath
				return config, nil
			}
			if errors.Is(legacyErr, os.ErrNotExist) {
				return Config{}, fmt.Errorf("no configuration file found (searched %q and %q): %w", DefaultConfigPath, legacyConfigPath, os.ErrNotExist)
			}
			return Config{}, fmt.Errorf("could not read config file %q: %w", legacyConfigPath, legacyErr)
		}
		return Config{}, fmt.Errorf("no configuration file found at %q: %w", path, os.ErrNotExist)
	}

	return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
}

// loadFromPath is a helper function that loads and validates the configuration from a specific file path.
func loadFromPath(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	if err := validateRaw(raw); err != nil {
		return Config{}, err
	}

	var config Config
	if err := json.Unmarshal(raw, &config); err != nil {
		return Config{}, err
	}
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = int(defaultInvokeTimeout.Seconds())
	}

	return config, nil
}

// validateRaw checks the raw configuration document against configSchema.
func validateRaw(raw []byte) error {
	schemaLoader := gojsonschema.NewGoLoader(configSchema)
	documentLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("config schema validation failed: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var issues []string
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(issues, "; "))
}
