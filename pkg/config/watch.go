package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/internal/logger"
)

// Watch re-reads the configuration file whenever it changes on disk and
// invokes onChange with the freshly loaded result. Invalid edits are
// logged and skipped, keeping the previous configuration active.
//
// Only a subset of settings can take effect at runtime (currently the
// logging section); callers decide what to re-apply.
func Watch(configPath string, onChange func(*Config)) {
	if configPath == "" {
		configPath = GetDefaultConfigPath()
	}

	v := viper.New()
	v.SetConfigFile(configPath)

	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := Load(configPath)
		if err != nil {
			logger.Warn("config change ignored", "path", e.Name, "error", err)
			return
		}
		logger.Info("configuration reloaded", "path", e.Name)
		onChange(cfg)
	})
	v.WatchConfig()
}
