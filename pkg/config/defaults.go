package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values applied to any configuration field left unset.
const (
	DefaultShutdownTimeout   = 30 * time.Second
	DefaultSSHPort           = 2222
	DefaultHostname          = "web-prod-03"
	DefaultServerID          = "SSH-2.0-OpenSSH_8.2p1 Ubuntu-4ubuntu0.4"
	DefaultInactivityTimeout = 30 * time.Second
	DefaultCacheTTL          = 24 * time.Hour
	DefaultCleanupInterval   = time.Hour
	DefaultAdminPort         = 9100
)

// ApplyDefaults fills in default values for any unset configuration fields.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applySSHDefaults(&cfg.SSH)
	applyEnrichmentDefaults(cfg)
	applyAdminDefaults(&cfg.Admin)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	cfg.Database.ApplyDefaults()
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applySSHDefaults(cfg *SSHConfig) {
	if cfg.Port == 0 {
		cfg.Port = DefaultSSHPort
	}
	if cfg.Hostname == "" {
		cfg.Hostname = DefaultHostname
	}
	if cfg.ServerID == "" {
		cfg.ServerID = DefaultServerID
	}
	if cfg.KeyDir == "" {
		cfg.KeyDir = defaultKeyDir()
	}
	if cfg.InactivityTimeout == 0 {
		cfg.InactivityTimeout = DefaultInactivityTimeout
	}
}

func applyEnrichmentDefaults(cfg *Config) {
	if cfg.AbuseIPDB.CacheTTL == 0 {
		cfg.AbuseIPDB.CacheTTL = DefaultCacheTTL
	}
	if cfg.AbuseIPDB.CleanupInterval == 0 {
		cfg.AbuseIPDB.CleanupInterval = DefaultCleanupInterval
	}
	if cfg.IPApi.CacheTTL == 0 {
		cfg.IPApi.CacheTTL = DefaultCacheTTL
	}
}

func applyAdminDefaults(cfg *AdminConfig) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultAdminPort
	}
}

// defaultKeyDir places generated host keys next to the database, under
// the XDG state directory.
func defaultKeyDir() string {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		home, _ := os.UserHomeDir()
		stateDir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateDir, "honeypot", "keys")
}

// GetDefaultConfig returns a fully populated configuration with all
// default values. Used when no config file exists.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
