package config

import (
	"strings"

	"github.com/marmos91/mirrorfs/pkg/journal"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyMetricsDefaults(&cfg.Metrics)
	applyJournalDefaults(&cfg.Journal)
	applySyncDefaults(&cfg.Sync)
	applyUFSDefaults(&cfg.UFS)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	// Enabled defaults to false (opt-in for telemetry)

	// Default endpoint is localhost:4317 (standard OTLP gRPC port)
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}

	// Default sample rate is 1.0 (sample all traces)
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	// Enabled defaults to false (opt-in for metrics)
	// Port defaults to 9090 if metrics are enabled
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// applyJournalDefaults sets journal defaults.
func applyJournalDefaults(cfg *JournalConfig) {
	if cfg.Backend == "" {
		cfg.Backend = "memory"
	}
	if cfg.MergeThreshold == 0 {
		cfg.MergeThreshold = journal.DefaultMergeThreshold
	}
	// Dir has no default - it's required for the badger backend
}

// applySyncDefaults sets sync defaults.
func applySyncDefaults(cfg *SyncConfig) {
	// Interval defaults to 0: sync on every operation
	if cfg.Workers == 0 {
		cfg.Workers = 4
	}
	if cfg.Policy == "" {
		cfg.Policy = "one"
	}
}

// applyUFSDefaults sets under-store defaults.
func applyUFSDefaults(cfg *UFSConfig) {
	if cfg.Type == "" {
		cfg.Type = "memory"
	}
	if cfg.S3.Region == "" {
		cfg.S3.Region = "us-east-1"
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
