package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// yamlSafePath converts a filesystem path to a YAML-safe representation.
// On Windows, backslashes in double-quoted YAML strings are interpreted as
// escape sequences (e.g. \U -> Unicode escape), causing parse errors.
func yamlSafePath(p string) string {
	return filepath.ToSlash(p)
}

func TestLoad_DefaultConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "INFO"

journal:
  backend: badger
  dir: "` + yamlSafePath(tmpDir) + `/journal"

sync:
  interval: 30s
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify defaults were applied
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.Sync.Workers != 4 {
		t.Errorf("Expected default sync workers 4, got %d", cfg.Sync.Workers)
	}
	if cfg.Sync.Interval != 30*time.Second {
		t.Errorf("Expected sync interval 30s, got %v", cfg.Sync.Interval)
	}
	if cfg.Journal.Backend != "badger" {
		t.Errorf("Expected journal backend 'badger', got %q", cfg.Journal.Backend)
	}
	if cfg.UFS.Type != "memory" {
		t.Errorf("Expected default under-store 'memory', got %q", cfg.UFS.Type)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// Loading with no config file returns a valid default config.
	// This allows running the master without a config file for quick testing.
	tmpDir := t.TempDir()
	nonExistentPath := filepath.Join(tmpDir, "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error when loading default config, got: %v", err)
	}

	if cfg == nil {
		t.Fatal("Expected default config to be returned")
	}
	if cfg.Journal.Backend != "memory" {
		t.Errorf("Expected default journal backend 'memory', got %q", cfg.Journal.Backend)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	configContent := `
logging:
  level: INFO
  invalid yaml here [[[
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_TOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	configContent := `
[logging]
level = "WARN"
format = "json"

[ufs]
type = "fs"
path = "` + yamlSafePath(tmpDir) + `"

[sync]
policy = "all"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load TOML config: %v", err)
	}

	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected level 'WARN', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected format 'json', got %q", cfg.Logging.Format)
	}
	if cfg.UFS.Type != "fs" {
		t.Errorf("Expected under-store 'fs', got %q", cfg.UFS.Type)
	}
	if cfg.Sync.Policy != "all" {
		t.Errorf("Expected sync policy 'all', got %q", cfg.Sync.Policy)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "INFO"

sync:
  workers: 4
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	// Env overrides apply to keys present in the file.
	t.Setenv("MIRRORFS_LOGGING_LEVEL", "DEBUG")
	t.Setenv("MIRRORFS_SYNC_WORKERS", "8")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected env override level 'DEBUG', got %q", cfg.Logging.Level)
	}
	if cfg.Sync.Workers != 8 {
		t.Errorf("Expected env override workers 8, got %d", cfg.Sync.Workers)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "saved", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Logging.Level = "DEBUG"
	cfg.UFS.Type = "s3"
	cfg.UFS.S3.Bucket = "mirrorfs-test"

	if err := SaveConfig(cfg, configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to reload saved config: %v", err)
	}
	if loaded.Logging.Level != "DEBUG" {
		t.Errorf("Expected level 'DEBUG' after round trip, got %q", loaded.Logging.Level)
	}
	if loaded.UFS.S3.Bucket != "mirrorfs-test" {
		t.Errorf("Expected bucket 'mirrorfs-test' after round trip, got %q", loaded.UFS.S3.Bucket)
	}

	// Saved file must be owner-only: it may carry credentials
	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Failed to stat config file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected file mode 0600, got %v", info.Mode().Perm())
	}
}

func TestMustLoad_MissingExplicitFile(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := MustLoad(filepath.Join(tmpDir, "missing.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing explicit config file")
	}
}
