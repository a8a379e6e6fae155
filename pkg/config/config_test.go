package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/recorder"
)

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, uint16(DefaultSSHPort), cfg.SSH.Port)
	assert.Equal(t, DefaultServerID, cfg.SSH.ServerID)
	assert.Equal(t, DefaultShutdownTimeout, cfg.ShutdownTimeout)
	assert.Equal(t, recorder.DatabaseTypeSQLite, cfg.Database.Type)
	assert.NotEmpty(t, cfg.Database.SQLite.Path)
	assert.Equal(t, 24*time.Hour, cfg.AbuseIPDB.CacheTTL)
}

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, Validate(GetDefaultConfig()))
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
logging:
  level: DEBUG
  format: json
ssh:
  port: 22
  hostname: mail-01
  tarpit: true
  inactivity_timeout: 2m
database:
  type: sqlite
  sqlite:
    path: ` + filepath.Join(dir, "hp.db") + `
abuseipdb:
  enabled: true
  api_key: test-key-123
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, uint16(22), cfg.SSH.Port)
	assert.Equal(t, "mail-01", cfg.SSH.Hostname)
	assert.True(t, cfg.SSH.Tarpit)
	assert.Equal(t, 2*time.Minute, cfg.SSH.InactivityTimeout)
	assert.True(t, cfg.AbuseIPDB.Enabled)
	assert.Equal(t, "test-key-123", cfg.AbuseIPDB.APIKey)

	// Unset fields still get defaults.
	assert.Equal(t, DefaultServerID, cfg.SSH.ServerID)
	assert.Equal(t, DefaultShutdownTimeout, cfg.ShutdownTimeout)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, uint16(DefaultSSHPort), cfg.SSH.Port)
}

func TestLoadRejectsInvalidLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: LOUD\n"), 0600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestValidateRejectsBadInterface(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.SSH.Interfaces = []string{"10.0.0.1", "not-an-ip"}

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not-an-ip")
}

func TestValidateRejectsSFTPWithRejectAll(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.SSH.RejectAllAuth = true
	cfg.SSH.EnableSFTP = true

	assert.Error(t, Validate(cfg))
}

func TestValidateRequiresAPIKeyWhenEnabled(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.AbuseIPDB.Enabled = true

	assert.Error(t, Validate(cfg))

	cfg.AbuseIPDB.APIKey = "k"
	assert.NoError(t, Validate(cfg))
}

func TestSaveAndReloadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := GetDefaultConfig()
	cfg.SSH.Hostname = "db-prod-07"
	cfg.SSH.Tarpit = true
	require.NoError(t, SaveConfig(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "db-prod-07", loaded.SSH.Hostname)
	assert.True(t, loaded.SSH.Tarpit)
}
