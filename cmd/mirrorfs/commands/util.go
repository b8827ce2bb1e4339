package commands

import (
	"context"
	"fmt"

	"github.com/marmos91/mirrorfs/internal/logger"
	"github.com/marmos91/mirrorfs/internal/telemetry"
	"github.com/marmos91/mirrorfs/pkg/config"
	"github.com/marmos91/mirrorfs/pkg/journal"
	jbadger "github.com/marmos91/mirrorfs/pkg/journal/badger"
	jmemory "github.com/marmos91/mirrorfs/pkg/journal/memory"
	"github.com/marmos91/mirrorfs/pkg/master"
	"github.com/marmos91/mirrorfs/pkg/metrics"
	"github.com/marmos91/mirrorfs/pkg/ufs"
	ufsfs "github.com/marmos91/mirrorfs/pkg/ufs/fs"
	umemory "github.com/marmos91/mirrorfs/pkg/ufs/memory"
	s3store "github.com/marmos91/mirrorfs/pkg/ufs/s3"
)

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// setup loads configuration, initializes the ambient stack and builds a
// master over the configured under-store and journal. The returned
// cleanup function releases everything; call it exactly once.
func setup(ctx context.Context) (*master.Master, *config.Config, func(), error) {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return nil, nil, nil, err
	}

	if err := InitLogger(cfg); err != nil {
		return nil, nil, nil, err
	}

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "mirrorfs",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	store, err := buildUnderStore(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	jsys, err := buildJournal(cfg)
	if err != nil {
		_ = store.Close()
		return nil, nil, nil, err
	}

	mcfg := master.Config{
		MergeThreshold:      cfg.Journal.MergeThreshold,
		DefaultSyncInterval: cfg.Sync.Interval,
		SyncWorkers:         cfg.Sync.Workers,
	}
	m, err := master.New(mcfg, store, jsys)
	if err != nil {
		_ = jsys.Close()
		_ = store.Close()
		return nil, nil, nil, err
	}

	// A persistent journal carries the namespace across restarts.
	if b, ok := jsys.(*jbadger.System); ok {
		entries, err := b.Entries()
		if err != nil {
			_ = m.Close()
			return nil, nil, nil, fmt.Errorf("failed to read journal: %w", err)
		}
		if err := m.Recover(entries); err != nil {
			_ = m.Close()
			return nil, nil, nil, err
		}
	}

	cleanup := func() {
		if err := m.Close(); err != nil {
			logger.Error("shutdown error", logger.KeyError, err.Error())
		}
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", logger.KeyError, err.Error())
		}
	}
	return m, cfg, cleanup, nil
}

// buildUnderStore constructs the configured under-store.
func buildUnderStore(ctx context.Context, cfg *config.Config) (ufs.Store, error) {
	switch cfg.UFS.Type {
	case "memory":
		return umemory.New(), nil
	case "fs":
		return ufsfs.New(cfg.UFS.Path)
	case "s3":
		client, err := s3store.NewClientFromConfig(ctx,
			cfg.UFS.S3.Endpoint,
			cfg.UFS.S3.Region,
			cfg.UFS.S3.AccessKeyID,
			cfg.UFS.S3.SecretAccessKey,
			cfg.UFS.S3.ForcePathStyle,
		)
		if err != nil {
			return nil, err
		}
		return s3store.New(ctx, s3store.Config{
			Client:    client,
			Bucket:    cfg.UFS.S3.Bucket,
			KeyPrefix: cfg.UFS.S3.KeyPrefix,
		})
	default:
		return nil, fmt.Errorf("unknown under-store type %q", cfg.UFS.Type)
	}
}

// buildJournal constructs the configured journal system.
func buildJournal(cfg *config.Config) (journal.System, error) {
	switch cfg.Journal.Backend {
	case "memory":
		return jmemory.New(), nil
	case "badger":
		return jbadger.Open(jbadger.DefaultConfig(cfg.Journal.Dir))
	default:
		return nil, fmt.Errorf("unknown journal backend %q", cfg.Journal.Backend)
	}
}
