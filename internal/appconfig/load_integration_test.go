// internal/appconfig/load_integration_test.go
package appconfig

import (
	"os"
	"path/filepath"
	"testing"
)

// chdirTemp moves the test into a fresh working directory so the
// default-path search starts from a known-empty tree.
func chdirTemp(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()
	oldCwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(tempDir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldCwd) })
	return tempDir
}

// TestLoadDefaultPath verifies that Load("") finds the config under the
// config/ directory and applies the timeout default for omitted values.
func TestLoadDefaultPath(t *testing.T) {
	tempDir := chdirTemp(t)
	configDir := filepath.Join(tempDir, "config")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("mkdir config: %v", err)
	}

	payload := `{ "data": "exports/may.csv", "model": "gpt-5-mini" }`
	if err := os.WriteFile(filepath.Join(configDir, "lucyreport.json"), []byte(payload), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.DataPath != "exports/may.csv" {
		t.Fatalf("expected data path from config, got %q", cfg.DataPath)
	}
	if cfg.TimeoutSeconds != 60 {
		t.Fatalf("expected default timeout 60, got %d", cfg.TimeoutSeconds)
	}
	if cfg.ConfigPath != DefaultConfigPath {
		t.Fatalf("expected config path %q, got %q", DefaultConfigPath, cfg.ConfigPath)
	}
}

// TestLoadLegacyFallback verifies that with no config/ directory the
// loader falls back to the legacy root-level file name.
func TestLoadLegacyFallback(t *testing.T) {
	tempDir := chdirTemp(t)

	payload := `{ "model": "gemini-3-flash-preview" }`
	if err := os.WriteFile(filepath.Join(tempDir, "lucyreport.json"), []byte(payload), 0o644); err != nil {
		t.Fatalf("write legacy config: %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Model != "gemini-3-flash-preview" {
		t.Fatalf("expected model from legacy config, got %q", cfg.Model)
	}
	if cfg.ConfigPath != "lucyreport.json" {
		t.Fatalf("expected legacy config path, got %q", cfg.ConfigPath)
	}
}

// TestLoadMissingFileError verifies that an empty tree yields an error
// naming both searched locations.
func TestLoadMissingFileError(t *testing.T) {
	chdirTemp(t)

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for missing config")
	}
}
