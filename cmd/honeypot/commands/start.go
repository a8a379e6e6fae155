package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/internal/admin"
	sshadapter "github.com/Lucy-dot-dot/ssh-honeypot-sub000/internal/adapter/ssh"
	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/internal/logger"
	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/config"
	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/geoip"
	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/metrics"
	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/recorder"
	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/reputation"
	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/vfs"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the honeypot",
	Long: `Start the SSH honeypot with the specified configuration.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/honeypot/config.yaml.

Examples:
  # Start with default config location
  honeypot start

  # Start with custom config file
  honeypot start --config /etc/honeypot/config.yaml

  # Start with environment variable overrides
  HONEYPOT_LOGGING_LEVEL=DEBUG honeypot start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))

	// Recorder: everything observed funnels through here into the DB.
	store, err := recorder.NewStore(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	rec := recorder.New(store)
	go rec.Run()
	logger.Info("Recorder started", "database", string(cfg.Database.Type))

	// Fake filesystem shared by every session.
	fs, err := buildFilesystem(cfg)
	if err != nil {
		return err
	}

	// Enrichment clients are optional; nil disables them.
	var abuse *reputation.Client
	if cfg.AbuseIPDB.Enabled {
		abuse = reputation.NewClient(cfg.AbuseIPDB.APIKey, rec, "", cfg.AbuseIPDB.CacheTTL)
		logger.Info("AbuseIPDB enrichment enabled", "cache_ttl", cfg.AbuseIPDB.CacheTTL)
	}
	var geo *geoip.Client
	if cfg.IPApi.Enabled {
		geo = geoip.NewClient(rec, "", cfg.IPApi.CacheTTL)
		logger.Info("Geolocation enrichment enabled", "cache_ttl", cfg.IPApi.CacheTTL)
	}

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)

	// Admin endpoint stays off unless explicitly enabled; it must never
	// share an interface with the honeypot itself.
	var adminSrv *admin.Server
	if cfg.Admin.Enabled {
		adminSrv = admin.NewServer(cfg.Admin, prometheus.DefaultGatherer)
		go func() {
			if err := adminSrv.Start(); err != nil {
				logger.Error("Admin server error", "error", err)
			}
		}()
		logger.Info("Admin server enabled", "host", cfg.Admin.Host, "port", cfg.Admin.Port)
	}

	sshSrv, err := sshadapter.NewServer(cfg.SSH, rec, fs, m, abuse, geo)
	if err != nil {
		return fmt.Errorf("failed to create ssh server: %w", err)
	}

	// Live log-level changes on config file edits.
	if path := getConfigSource(GetConfigFile()); path != "defaults" {
		config.Watch(path, func(updated *config.Config) {
			logger.SetLevel(updated.Logging.Level)
			logger.Info("Log level updated", "level", updated.Logging.Level)
		})
	}

	if cfg.AbuseIPDB.Enabled {
		go runCacheCleanup(ctx, store, cfg.AbuseIPDB)
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- sshSrv.Serve(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Honeypot is running. Press Ctrl+C to stop.",
		"port", cfg.SSH.Port, "hostname", cfg.SSH.Hostname)

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()
	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("Server error", "error", err)
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := sshSrv.Stop(shutdownCtx); err != nil {
		logger.Error("SSH shutdown error", "error", err)
	}
	if adminSrv != nil {
		if err := adminSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Admin shutdown error", "error", err)
		}
	}
	// The recorder drains last so every session that just ended still
	// makes it to the database.
	if err := rec.Shutdown(shutdownCtx); err != nil {
		logger.Error("Recorder shutdown error", "error", err)
	}

	logger.Info("Honeypot stopped gracefully")
	return nil
}

// buildFilesystem creates the in-memory tree every session sees, from a
// tarball snapshot when configured or the built-in skeleton otherwise.
func buildFilesystem(cfg *config.Config) (*vfs.FileSystem, error) {
	fs := vfs.New()

	if cfg.SSH.BaseTarGzPath != "" {
		f, err := os.Open(cfg.SSH.BaseTarGzPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open base filesystem snapshot: %w", err)
		}
		defer func() { _ = f.Close() }()

		if err := fs.LoadTarGz(f); err != nil {
			return nil, fmt.Errorf("failed to load base filesystem snapshot: %w", err)
		}
		logger.Info("Filesystem loaded from snapshot", "path", cfg.SSH.BaseTarGzPath)
		return fs, nil
	}

	if err := vfs.SeedMinimal(fs, cfg.SSH.Hostname); err != nil {
		return nil, fmt.Errorf("failed to seed filesystem: %w", err)
	}
	logger.Info("Filesystem seeded with built-in skeleton")
	return fs, nil
}

// runCacheCleanup periodically deletes expired reputation rows so the
// database does not grow without bound.
func runCacheCleanup(ctx context.Context, store *recorder.Store, cfg config.AbuseIPDBConfig) {
	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := store.CleanupAbuseIPCache(ctx, cfg.CacheTTL)
			if err != nil {
				logger.Warn("Reputation cache cleanup failed", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Debug("Reputation cache cleaned", "deleted", deleted)
			}
		}
	}
}
