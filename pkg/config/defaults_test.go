package config

import (
	"testing"

	"github.com/marmos91/mirrorfs/pkg/journal"
)

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Telemetry.Enabled {
		t.Error("Expected telemetry disabled by default")
	}
	if cfg.Telemetry.Endpoint != "localhost:4317" {
		t.Errorf("Expected default OTLP endpoint, got %q", cfg.Telemetry.Endpoint)
	}
	if cfg.Telemetry.SampleRate != 1.0 {
		t.Errorf("Expected default sample rate 1.0, got %v", cfg.Telemetry.SampleRate)
	}
	if cfg.Journal.Backend != "memory" {
		t.Errorf("Expected default journal backend 'memory', got %q", cfg.Journal.Backend)
	}
	if cfg.Journal.MergeThreshold != journal.DefaultMergeThreshold {
		t.Errorf("Expected default merge threshold %d, got %d",
			journal.DefaultMergeThreshold, cfg.Journal.MergeThreshold)
	}
	if cfg.Sync.Interval != 0 {
		t.Errorf("Expected default sync interval 0, got %v", cfg.Sync.Interval)
	}
	if cfg.Sync.Workers != 4 {
		t.Errorf("Expected default sync workers 4, got %d", cfg.Sync.Workers)
	}
	if cfg.Sync.Policy != "one" {
		t.Errorf("Expected default sync policy 'one', got %q", cfg.Sync.Policy)
	}
	if cfg.UFS.Type != "memory" {
		t.Errorf("Expected default under-store 'memory', got %q", cfg.UFS.Type)
	}
	if cfg.UFS.S3.Region != "us-east-1" {
		t.Errorf("Expected default S3 region 'us-east-1', got %q", cfg.UFS.S3.Region)
	}

	// The default config must pass its own validation
	if err := Validate(cfg); err != nil {
		t.Errorf("Default config failed validation: %v", err)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Logging.Level = "debug"
	cfg.Sync.Workers = 16
	cfg.Journal.MergeThreshold = 7

	ApplyDefaults(cfg)

	// Level is normalized to uppercase, not replaced
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected normalized level 'DEBUG', got %q", cfg.Logging.Level)
	}
	if cfg.Sync.Workers != 16 {
		t.Errorf("Expected explicit workers 16 preserved, got %d", cfg.Sync.Workers)
	}
	if cfg.Journal.MergeThreshold != 7 {
		t.Errorf("Expected explicit threshold 7 preserved, got %d", cfg.Journal.MergeThreshold)
	}
}

func TestApplyDefaults_MetricsPortOnlyWhenEnabled(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Metrics.Port != 0 {
		t.Errorf("Expected no metrics port when disabled, got %d", cfg.Metrics.Port)
	}

	cfg = &Config{}
	cfg.Metrics.Enabled = true
	ApplyDefaults(cfg)
	if cfg.Metrics.Port != 9090 {
		t.Errorf("Expected metrics port 9090 when enabled, got %d", cfg.Metrics.Port)
	}
}
