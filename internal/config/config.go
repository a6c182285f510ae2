// Package config manages application configuration from config.yaml,
// BOT_* environment variables, and default values.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrConfiguration wraps all configuration loading and validation failures.
var ErrConfiguration = errors.New("configuration error")

// Default values for optional configuration parameters.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultListenAddr      = ":8080"
	DefaultShutdownTimeout = 10 * time.Second

	DefaultDropPendingUpdates = true

	DefaultDBPath            = "storage.db"
	DefaultDBMaxOpenConns    = 1 // SQLite does not support concurrent writers
	DefaultDBMaxIdleConns    = 1
	DefaultDBConnMaxLifetime = 5 * time.Minute
)

// DefaultSchedulerTasks enables the built-in maintenance tasks.
var DefaultSchedulerTasks = map[string]TaskConfig{
	"sql_maintenance": {Enabled: true, Schedule: "0 4 * * *"},
	"registry_report": {Enabled: true, Schedule: "0 * * * *"},
}

// Config defines the application configuration. Values can be set via
// environment variables prefixed with BOT_ (e.g. BOT_TELEGRAM_TOKEN) or
// through config.yaml.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Web       WebConfig       `mapstructure:"web"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level  string `mapstructure:"level"  validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// TelegramConfig holds the main instance credential and platform options.
type TelegramConfig struct {
	Token              string `mapstructure:"token" validate:"required"`
	DropPendingUpdates bool   `mapstructure:"drop_pending_updates"`
}

// WebConfig holds the HTTP server settings and the public base URL used to
// build the callback URLs registered with Telegram.
type WebConfig struct {
	PublicURL       string        `mapstructure:"public_url"  validate:"required,url"`
	ListenAddr      string        `mapstructure:"listen_addr" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=1s"`
}

// DatabaseConfig holds the SQLite activity store settings.
type DatabaseConfig struct {
	Path            string        `mapstructure:"path" validate:"required"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a registered task on a cron schedule.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// Validate checks the complete configuration using struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
