package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load loads and validates configuration from:
// 1. Default values
// 2. config.yaml file
// 3. BOT_* environment variables
func Load() (*Config, error) {
	setDefaults()

	cfg := &Config{
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Telegram: TelegramConfig{
			DropPendingUpdates: DefaultDropPendingUpdates,
		},
		Web: WebConfig{
			ListenAddr:      DefaultListenAddr,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Database: DatabaseConfig{
			Path:            DefaultDBPath,
			MaxOpenConns:    DefaultDBMaxOpenConns,
			MaxIdleConns:    DefaultDBMaxIdleConns,
			ConnMaxLifetime: DefaultDBConnMaxLifetime,
		},
		Scheduler: SchedulerConfig{
			Tasks: DefaultSchedulerTasks,
		},
	}

	// Try to load config file (optional)
	if err := loadConfig(); err != nil {
		return nil, fmt.Errorf("%w: failed to load config file: %v", ErrConfiguration, err)
	}

	// Unmarshal config file over defaults
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return cfg, nil
}

// loadConfig initializes and loads the configuration using viper
func loadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	// Setup environment variables
	viper.SetEnvPrefix("BOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Allow missing config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %v", err)
		}
		// Config file not found is okay, we'll use defaults
	}

	return nil
}

// setDefaults sets default values for optional configuration parameters
func setDefaults() {
	viper.SetDefault("log.level", DefaultLogLevel)
	viper.SetDefault("log.format", DefaultLogFormat)

	viper.SetDefault("telegram.drop_pending_updates", DefaultDropPendingUpdates)

	viper.SetDefault("web.listen_addr", DefaultListenAddr)
	viper.SetDefault("web.shutdown_timeout", DefaultShutdownTimeout)

	viper.SetDefault("database.path", DefaultDBPath)
	viper.SetDefault("database.max_open_conns", DefaultDBMaxOpenConns)
	viper.SetDefault("database.max_idle_conns", DefaultDBMaxIdleConns)
	viper.SetDefault("database.conn_max_lifetime", DefaultDBConnMaxLifetime)

	for name, task := range DefaultSchedulerTasks {
		viper.SetDefault("scheduler.tasks."+name+".enabled", task.Enabled)
		viper.SetDefault("scheduler.tasks."+name+".schedule", task.Schedule)
	}
}
