package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/yourusername/showcase-dl/internal/domain"
)

// LoadConfig loads configuration from file and environment.
// An empty configPath searches the standard locations; a missing file is not an error.
func LoadConfig(configPath string) (*domain.Config, error) {
	return LoadConfigWith(viper.New(), configPath)
}

// LoadConfigWith loads configuration through v, so callers can bind CLI flags first
func LoadConfigWith(v *viper.Viper, configPath string) (*domain.Config, error) {
	config := domain.DefaultConfig()
	setDefaults(v, config)

	v.SetConfigType("yaml")
	if configPath != "" {
		v.SetConfigFile(expandPath(configPath))
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("$HOME/.config/showcase-dl")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SHOWCASEDL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.Logging.OutputPath = expandPath(config.Logging.OutputPath)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults registers every default so AutomaticEnv can override nested keys
func setDefaults(v *viper.Viper, config *domain.Config) {
	v.SetDefault("downloader.binary", config.Downloader.Binary)
	v.SetDefault("downloader.options", config.Downloader.Options)
	v.SetDefault("dashboard.tick", config.Dashboard.Tick)
	v.SetDefault("shutdown.poll_interval", config.Shutdown.PollInterval)
	v.SetDefault("fetch.retries", config.Fetch.Retries)
	v.SetDefault("fetch.retry_delay", config.Fetch.RetryDelay)
	v.SetDefault("fetch.timeout", config.Fetch.Timeout)
	v.SetDefault("fetch.user_agent", config.Fetch.UserAgent)
	v.SetDefault("status.addr", config.Status.Addr)
	v.SetDefault("notification.enabled", config.Notification.Enabled)
	v.SetDefault("notification.method", config.Notification.Method)
	v.SetDefault("logging.level", config.Logging.Level)
	v.SetDefault("logging.format", config.Logging.Format)
	v.SetDefault("logging.output_path", config.Logging.OutputPath)
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	path = os.ExpandEnv(path)

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return path
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if strings.TrimSpace(config.Downloader.Binary) == "" {
		return fmt.Errorf("downloader binary not configured")
	}

	if config.Dashboard.Tick <= 0 {
		return fmt.Errorf("dashboard tick must be positive: %s", config.Dashboard.Tick)
	}

	if config.Shutdown.PollInterval <= 0 {
		return fmt.Errorf("shutdown poll interval must be positive: %s", config.Shutdown.PollInterval)
	}

	if config.Fetch.Retries < 1 {
		return fmt.Errorf("fetch retries must be at least 1")
	}

	// stdout and stderr belong to the dashboard while it runs
	switch config.Logging.OutputPath {
	case "", "stdout", "stderr":
		return fmt.Errorf("log output must be a file, got %q", config.Logging.OutputPath)
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "error"
	}

	return nil
}
