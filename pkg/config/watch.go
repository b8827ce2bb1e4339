package config

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/marmos91/mirrorfs/internal/logger"
)

// Watch reloads the configuration whenever the file at configPath
// changes and hands the fresh result to onReload. Reload failures are
// logged and skipped; the previously loaded configuration stays in
// effect.
//
// Only a subset of settings can take effect at runtime (logging level
// and format, sync interval); callers decide what to apply. Watch
// returns after installing the watcher; events are delivered on
// viper's watcher goroutine.
func Watch(configPath string, onReload func(*Config)) error {
	if configPath == "" {
		configPath = GetDefaultConfigPath()
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file for watching: %w", err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := Load(configPath)
		if err != nil {
			logger.Warn("config reload failed, keeping previous configuration",
				logger.KeyError, err.Error(),
				"file", e.Name)
			return
		}
		logger.Info("configuration reloaded", "file", e.Name)
		onReload(cfg)
	})
	v.WatchConfig()
	return nil
}
