package recorder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// DatabaseType defines the supported database backends.
type DatabaseType string

const (
	// DatabaseTypeSQLite uses SQLite (single-node, default).
	DatabaseTypeSQLite DatabaseType = "sqlite"

	// DatabaseTypePostgres uses PostgreSQL.
	DatabaseTypePostgres DatabaseType = "postgres"
)

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Path is the path to the SQLite database file.
	Path string `mapstructure:"path" yaml:"path"`
}

// PostgresConfig contains PostgreSQL-specific configuration.
type PostgresConfig struct {
	Host         string `mapstructure:"host" yaml:"host"`
	Port         int    `mapstructure:"port" yaml:"port"`
	Database     string `mapstructure:"database" yaml:"database"`
	User         string `mapstructure:"user" yaml:"user"`
	Password     string `mapstructure:"password" yaml:"password"`
	SSLMode      string `mapstructure:"ssl_mode" yaml:"ssl_mode"`
	MaxOpenConns int    `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
}

// DSN returns the PostgreSQL connection string.
func (c *PostgresConfig) DSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		c.Host, c.Port, c.User, c.Password, c.Database)
	if c.SSLMode != "" {
		dsn += fmt.Sprintf(" sslmode=%s", c.SSLMode)
	}
	return dsn
}

// Config contains database configuration.
type Config struct {
	Type     DatabaseType   `mapstructure:"type" yaml:"type"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite" yaml:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
}

// ApplyDefaults fills in missing configuration with default values.
func (c *Config) ApplyDefaults() {
	if c.Type == "" {
		c.Type = DatabaseTypeSQLite
	}

	if c.Type == DatabaseTypeSQLite && c.SQLite.Path == "" {
		stateDir := os.Getenv("XDG_STATE_HOME")
		if stateDir == "" {
			homeDir, _ := os.UserHomeDir()
			stateDir = filepath.Join(homeDir, ".local", "state")
		}
		c.SQLite.Path = filepath.Join(stateDir, "honeypot", "honeypot.db")
	}

	if c.Type == DatabaseTypePostgres {
		if c.Postgres.Port == 0 {
			c.Postgres.Port = 5432
		}
		if c.Postgres.SSLMode == "" {
			c.Postgres.SSLMode = "disable"
		}
		if c.Postgres.MaxOpenConns == 0 {
			c.Postgres.MaxOpenConns = 25
		}
		if c.Postgres.MaxIdleConns == 0 {
			c.Postgres.MaxIdleConns = 5
		}
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Type {
	case DatabaseTypeSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case DatabaseTypePostgres:
		if c.Postgres.Host == "" {
			return fmt.Errorf("postgres host is required")
		}
		if c.Postgres.Database == "" {
			return fmt.Errorf("postgres database is required")
		}
		if c.Postgres.User == "" {
			return fmt.Errorf("postgres user is required")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Type)
	}
	return nil
}

// Store persists honeypot observations using GORM. It supports both
// SQLite and PostgreSQL backends via the same codebase. All writes go
// through the Recorder actor; the read methods are safe for concurrent
// use (CLI inspection commands use them directly).
type Store struct {
	db     *gorm.DB
	config *Config
}

// NewStore opens the database and runs schema migration.
func NewStore(config *Config) (*Store, error) {
	if config == nil {
		config = &Config{}
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	var dialector gorm.Dialector
	switch config.Type {
	case DatabaseTypeSQLite:
		if err := os.MkdirAll(filepath.Dir(config.SQLite.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		// WAL keeps readers (CLI inspection) from blocking the writer.
		dsn := config.SQLite.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		dialector = sqlite.Open(dsn)

	case DatabaseTypePostgres:
		dialector = postgres.Open(config.Postgres.DSN())

	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if config.Type == DatabaseTypePostgres {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying database: %w", err)
		}
		sqlDB.SetMaxOpenConns(config.Postgres.MaxOpenConns)
		sqlDB.SetMaxIdleConns(config.Postgres.MaxIdleConns)
	}

	if err := db.AutoMigrate(AllModels()...); err != nil {
		return nil, fmt.Errorf("failed to run database migration: %w", err)
	}

	return &Store{db: db, config: config}, nil
}

// DB returns the underlying GORM database connection, useful for
// advanced queries and testing.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InsertAuth stores one authentication attempt.
func (s *Store) InsertAuth(ctx context.Context, auth *Auth) error {
	return s.db.WithContext(ctx).Create(auth).Error
}

// InsertCommand stores one executed shell command.
func (s *Store) InsertCommand(ctx context.Context, cmd *Command) error {
	return s.db.WithContext(ctx).Create(cmd).Error
}

// InsertSession stores one finished session summary.
func (s *Store) InsertSession(ctx context.Context, session *Session) error {
	return s.db.WithContext(ctx).Create(session).Error
}

// InsertConnect stores one raw TCP connection.
func (s *Store) InsertConnect(ctx context.Context, connect *Connect) error {
	return s.db.WithContext(ctx).Create(connect).Error
}

// InsertUpload stores one captured SFTP upload.
func (s *Store) InsertUpload(ctx context.Context, upload *UploadedFile) error {
	return s.db.WithContext(ctx).Create(upload).Error
}

// GetAbuseIPCheck returns the cached AbuseIPDB result for ip if one exists
// and is younger than ttl, nil otherwise.
func (s *Store) GetAbuseIPCheck(ctx context.Context, ip string, ttl time.Duration) (*AbuseIPCheck, error) {
	var check AbuseIPCheck
	err := s.db.WithContext(ctx).
		Where("ip = ? AND timestamp > ?", ip, time.Now().Add(-ttl)).
		First(&check).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &check, nil
}

// UpsertAbuseIPCheck inserts or refreshes the cache row for check.IP.
func (s *Store) UpsertAbuseIPCheck(ctx context.Context, check *AbuseIPCheck) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "ip"}},
			UpdateAll: true,
		}).
		Create(check).Error
}

// GetIPApiCheck returns the cached geolocation result for ip if one exists
// and is younger than ttl, nil otherwise.
func (s *Store) GetIPApiCheck(ctx context.Context, ip string, ttl time.Duration) (*IPApiCheck, error) {
	var check IPApiCheck
	err := s.db.WithContext(ctx).
		Where("ip = ? AND timestamp > ?", ip, time.Now().Add(-ttl)).
		First(&check).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &check, nil
}

// UpsertIPApiCheck inserts or refreshes the cache row for check.IP.
func (s *Store) UpsertIPApiCheck(ctx context.Context, check *IPApiCheck) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "ip"}},
			UpdateAll: true,
		}).
		Create(check).Error
}

// CleanupAbuseIPCache deletes cache rows older than maxAge and returns
// how many were removed.
func (s *Store) CleanupAbuseIPCache(ctx context.Context, maxAge time.Duration) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("timestamp < ?", time.Now().Add(-maxAge)).
		Delete(&AbuseIPCheck{})
	return result.RowsAffected, result.Error
}

// ListAuths returns the most recent authentication attempts, newest first.
func (s *Store) ListAuths(ctx context.Context, limit int) ([]Auth, error) {
	var auths []Auth
	err := s.db.WithContext(ctx).
		Order("timestamp DESC").
		Limit(limit).
		Find(&auths).Error
	return auths, err
}

// ListSessions returns the most recent session summaries, newest first.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	var sessions []Session
	err := s.db.WithContext(ctx).
		Order("timestamp DESC").
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}

// ListAuthsByIP returns every authentication attempt from one IP, newest
// first.
func (s *Store) ListAuthsByIP(ctx context.Context, ip string) ([]Auth, error) {
	var auths []Auth
	err := s.db.WithContext(ctx).
		Where("ip = ?", ip).
		Order("timestamp DESC").
		Find(&auths).Error
	return auths, err
}

// ListAuthsByPassword returns every password authentication attempt that
// tried the given password, newest first.
func (s *Store) ListAuthsByPassword(ctx context.Context, password string) ([]Auth, error) {
	var auths []Auth
	err := s.db.WithContext(ctx).
		Where("method = ? AND password = ?", AuthMethodPassword, password).
		Order("timestamp DESC").
		Find(&auths).Error
	return auths, err
}

// FindAbuseIPCheck returns the cached AbuseIPDB result for ip regardless of
// age, nil if the IP was never checked.
func (s *Store) FindAbuseIPCheck(ctx context.Context, ip string) (*AbuseIPCheck, error) {
	var check AbuseIPCheck
	err := s.db.WithContext(ctx).Where("ip = ?", ip).First(&check).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &check, nil
}

// FindIPApiCheck returns the cached geolocation result for ip regardless of
// age, nil if the IP was never looked up.
func (s *Store) FindIPApiCheck(ctx context.Context, ip string) (*IPApiCheck, error) {
	var check IPApiCheck
	err := s.db.WithContext(ctx).Where("ip = ?", ip).First(&check).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &check, nil
}

// ListCommands returns all commands recorded under one auth, oldest first.
func (s *Store) ListCommands(ctx context.Context, authID string) ([]Command, error) {
	var commands []Command
	err := s.db.WithContext(ctx).
		Where("auth_id = ?", authID).
		Order("timestamp ASC").
		Find(&commands).Error
	return commands, err
}
