// Package config loads and validates the honeypot configuration from
// file, environment variables and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/recorder"
)

// Config represents the honeypot configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (HONEYPOT_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Database configures where observations are persisted (SQLite or PostgreSQL)
	Database recorder.Config `mapstructure:"database" yaml:"database"`

	// SSH configures the fake SSH server
	SSH SSHConfig `mapstructure:"ssh" yaml:"ssh"`

	// AbuseIPDB configures client IP reputation enrichment
	AbuseIPDB AbuseIPDBConfig `mapstructure:"abuseipdb" yaml:"abuseipdb"`

	// IPApi configures client IP geolocation enrichment
	IPApi IPApiConfig `mapstructure:"ip_api" yaml:"ip_api"`

	// Admin contains the operator-facing HTTP endpoint (metrics, health)
	Admin AdminConfig `mapstructure:"admin" yaml:"admin"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// SSHConfig configures the fake SSH server exposed to attackers.
type SSHConfig struct {
	// Interfaces are the local addresses to bind. An empty list binds
	// the wildcard address.
	Interfaces []string `mapstructure:"interfaces" yaml:"interfaces"`

	// Port is the TCP port to listen on
	Port uint16 `mapstructure:"port" validate:"required" yaml:"port"`

	// Hostname is the fake hostname presented in the prompt, MOTD and
	// command output
	Hostname string `mapstructure:"hostname" validate:"required,hostname_rfc1123" yaml:"hostname"`

	// ServerID is the SSH protocol version banner sent to clients
	ServerID string `mapstructure:"server_id" validate:"required,startswith=SSH-2.0-" yaml:"server_id"`

	// Banner is an optional pre-authentication banner
	Banner string `mapstructure:"banner" yaml:"banner"`

	// KeyDir is where generated host keys are persisted
	KeyDir string `mapstructure:"key_dir" yaml:"key_dir"`

	// BaseTarGzPath optionally points at a .tar.gz snapshot used to
	// populate the fake filesystem at startup
	BaseTarGzPath string `mapstructure:"base_targz_path" yaml:"base_targz_path"`

	// RejectAllAuth refuses every authentication attempt instead of
	// letting clients in. Credentials are still recorded.
	RejectAllAuth bool `mapstructure:"reject_all_auth" yaml:"reject_all_auth"`

	// DisableCLI accepts sessions but never presents a shell
	DisableCLI bool `mapstructure:"disable_cli" yaml:"disable_cli"`

	// EnableSFTP serves the fake SFTP subsystem
	EnableSFTP bool `mapstructure:"enable_sftp" yaml:"enable_sftp"`

	// Tarpit throttles all session output byte by byte to waste
	// attacker time
	Tarpit bool `mapstructure:"tarpit" yaml:"tarpit"`

	// InactivityTimeout disconnects idle interactive sessions
	InactivityTimeout time.Duration `mapstructure:"inactivity_timeout" validate:"required,gt=0" yaml:"inactivity_timeout"`

	// DisableSOReuseaddr and DisableSOReuseport skip the respective
	// socket options on the listener
	DisableSOReuseaddr bool `mapstructure:"disable_so_reuseaddr" yaml:"disable_so_reuseaddr"`
	DisableSOReuseport bool `mapstructure:"disable_so_reuseport" yaml:"disable_so_reuseport"`
}

// AbuseIPDBConfig configures reputation lookups for connecting IPs.
type AbuseIPDBConfig struct {
	// Enabled turns reputation enrichment on. Requires APIKey.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// APIKey is the AbuseIPDB API key
	APIKey string `mapstructure:"api_key" validate:"required_if=Enabled true" yaml:"api_key"`

	// CacheTTL is how long a verdict stays valid before re-querying
	CacheTTL time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`

	// CleanupInterval is how often expired cache rows are deleted from
	// the database
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" yaml:"cleanup_interval"`
}

// IPApiConfig configures geolocation lookups for connecting IPs.
type IPApiConfig struct {
	// Enabled turns geolocation enrichment on
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// CacheTTL is how long a lookup stays valid before re-querying
	CacheTTL time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
}

// AdminConfig configures the operator-facing HTTP server. It serves
// Prometheus metrics and a health endpoint and must never be exposed on
// the same interface as the honeypot itself.
type AdminConfig struct {
	// Enabled controls whether the admin server runs at all
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Host is the address to bind
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the HTTP port
	Port int `mapstructure:"port" validate:"omitempty,gt=0,lte=65535" yaml:"port"`
}

// Load loads configuration from file, environment, and defaults.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	// If no config file was found, use defaults
	if !configFileFound {
		cfg := GetDefaultConfig()
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages when the
// config file is missing.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  honeypot init\n\n"+
				"Or specify a custom config file:\n"+
				"  honeypot <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  honeypot init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path in YAML.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600 because the file may hold the AbuseIPDB API key.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file
// settings. Environment variables use the HONEYPOT_ prefix, for example
// HONEYPOT_LOGGING_LEVEL=DEBUG.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("HONEYPOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists. Returns
// (fileFound, error).
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns the combined decode hook for custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
	)
}

// durationDecodeHook converts strings like "30s", "5m", "1h" and raw
// numbers (nanoseconds) to time.Duration.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path. Uses
// XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "honeypot")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "honeypot")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for the
// init command).
func GetConfigDir() string {
	return getConfigDir()
}
