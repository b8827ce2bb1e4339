package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/mirrorfs/internal/logger"
	"github.com/marmos91/mirrorfs/pkg/config"
	"github.com/marmos91/mirrorfs/pkg/master"
	"github.com/marmos91/mirrorfs/pkg/metrics"
)

var serveRefresh time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the master with periodic background syncs",
	Long: `Keep the master running and reconcile the namespace root on a fixed
cadence. When metrics are enabled, a Prometheus endpoint is served at
/metrics on the configured port.

The logging level and format are reloaded when the config file changes;
other settings require a restart.

Examples:
  # Refresh every minute (default)
  mirrorfs serve

  # Refresh every 10 seconds
  mirrorfs serve --refresh 10s`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().DurationVar(&serveRefresh, "refresh", time.Minute, "Interval between background sync passes")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m, cfg, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	policy, err := master.ParseDescendantPolicy(cfg.Sync.Policy)
	if err != nil {
		return err
	}

	var metricsSrv *metrics.Server
	if cfg.Metrics.Enabled {
		metricsSrv = metrics.NewServer(cfg.Metrics.Port)
		go func() {
			if err := metricsSrv.Start(); err != nil {
				logger.Error("metrics server error", logger.KeyError, err.Error())
			}
		}()
		logger.Info("metrics server listening", "port", cfg.Metrics.Port)
	}

	// Pick up logging changes without a restart.
	if err := config.Watch(GetConfigFile(), func(fresh *config.Config) {
		logger.SetLevel(fresh.Logging.Level)
		logger.SetFormat(fresh.Logging.Format)
	}); err != nil {
		logger.Debug("config watching disabled", logger.KeyError, err.Error())
	}

	refresh := serveRefresh
	if refresh <= 0 {
		refresh = time.Minute
	}
	logger.Info("background refresh started",
		logger.KeyPolicy, policy.String(),
		"refresh", refresh.String())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	// One pass up front so the namespace is populated before the first tick.
	m.Sync(ctx, "/", policy, 0)

	for {
		select {
		case <-ticker.C:
			result := m.Sync(ctx, "/", policy, cfg.Sync.Interval)
			if result.Status == master.SyncFailed {
				logger.Warn("background sync failed", logger.KeyPath, "/")
			}
		case <-sigChan:
			logger.Info("shutdown signal received")
			cancel()
			if metricsSrv != nil {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("metrics server shutdown: %w", err)
				}
			}
			return nil
		}
	}
}
