package domain

import "time"

// Config represents the application configuration
type Config struct {
	Downloader   DownloaderConfig   `mapstructure:"downloader"`
	Dashboard    DashboardConfig    `mapstructure:"dashboard"`
	Shutdown     ShutdownConfig     `mapstructure:"shutdown"`
	Fetch        FetchConfig        `mapstructure:"fetch"`
	Status       StatusConfig       `mapstructure:"status"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// DownloaderConfig describes the external downloader invocation
type DownloaderConfig struct {
	Binary  string   `mapstructure:"binary"`
	Options []string `mapstructure:"options"`
}

// DashboardConfig contains terminal dashboard settings
type DashboardConfig struct {
	Tick time.Duration `mapstructure:"tick"`
}

// ShutdownConfig contains graceful shutdown settings
type ShutdownConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// FetchConfig contains HTTP settings used during discovery
type FetchConfig struct {
	Retries    int           `mapstructure:"retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	Timeout    time.Duration `mapstructure:"timeout"`
	UserAgent  string        `mapstructure:"user_agent"`
}

// StatusConfig contains the optional read-only status API settings
type StatusConfig struct {
	Addr string `mapstructure:"addr"` // empty disables the server
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Method  string `mapstructure:"method"` // notify-send, osascript
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // file path; the terminal is owned by the dashboard
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Downloader: DownloaderConfig{
			Binary:  "yt-dlp",
			Options: []string{},
		},
		Dashboard: DashboardConfig{
			Tick: 50 * time.Millisecond,
		},
		Shutdown: ShutdownConfig{
			PollInterval: 25 * time.Millisecond,
		},
		Fetch: FetchConfig{
			Retries:    3,
			RetryDelay: 500 * time.Millisecond,
			Timeout:    30 * time.Second,
			UserAgent:  "showcase-dl",
		},
		Notification: NotificationConfig{
			Enabled: false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "error",
			Format:     "console",
			OutputPath: "showcase-dl.log",
		},
	}
}
