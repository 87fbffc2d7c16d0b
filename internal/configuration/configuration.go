package configuration

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// AppConfig represents the complete application configuration.
type AppConfig struct {
	// Logger: logger component configuration
	Logger LoggerConfig `mapstructure:"logger"`
	// Server: HTTP bridge configuration
	Server ServerConfig `mapstructure:"server"`
	// Tracking: interaction tracker configuration
	Tracking TrackingConfig `mapstructure:"tracking"`
	// Insights: insight rules configuration
	Insights InsightsConfig `mapstructure:"insights"`
}

// LoggerConfig defines logging settings.
type LoggerConfig struct {
	// Level: log level: debug, info, warn, warning, error.
	// Value is case-insensitive but checked in lowercase.
	Level string `mapstructure:"level"`
	// File: optional log file; logs go to stdout when empty.
	File string `mapstructure:"file"`
	// MaxSize: log file size in megabytes before rotation.
	MaxSize int `mapstructure:"max_size"`
	// MaxBackups: number of rotated log files to keep.
	MaxBackups int `mapstructure:"max_backups"`
}

// ServerConfig contains HTTP server parameters.
type ServerConfig struct {
	// Address: address and port where the server will listen (e.g., "127.0.0.1:8080").
	Address string `mapstructure:"address"`
	// Static: path to directory with static files served by the server.
	// Can be empty if static serving is not required.
	Static string `mapstructure:"static"`
	// SessionCookie: name of the cookie carrying the session id.
	SessionCookie string `mapstructure:"session_cookie"`
}

// TrackingConfig defines interaction tracking parameters.
type TrackingConfig struct {
	// LogLength: number of events kept per session.
	LogLength int `mapstructure:"log_length"`
	// TickInterval: cadence of the time-spent timer.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// MovementRate: maximum movement events per second; 0 disables throttling.
	MovementRate float64 `mapstructure:"movement_rate"`
	// SessionTTL: idle time after which a session is detached and dropped.
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// InsightsConfig defines the insight rules source.
type InsightsConfig struct {
	// Rules: path to a YAML rules file; the embedded rule set is used when empty.
	Rules string `mapstructure:"rules"`
}

// Validate checks the correctness of the entire application configuration.
// Returns the first detected error, or nil if the configuration is valid.
func (c *AppConfig) Validate() error {
	if err := c.Logger.Validate(); err != nil {
		return err
	}

	if err := c.Server.Validate(); err != nil {
		return err
	}

	if err := c.Tracking.Validate(); err != nil {
		return err
	}

	return nil
}

// Validate checks that the log level is set and supported.
func (l *LoggerConfig) Validate() error {
	if l.Level == "" {
		return errors.New("logger.level: must be specified")
	}

	valid := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !valid[strings.ToLower(l.Level)] {
		return fmt.Errorf("logger.level: unsupported level '%s'", l.Level)
	}

	if l.File != "" && (l.MaxSize <= 0 || l.MaxBackups < 0) {
		return errors.New("logger.max_size must be positive and logger.max_backups non-negative")
	}

	return nil
}

// Validate checks that the server address and session cookie are set.
func (n *ServerConfig) Validate() error {
	if n.Address == "" {
		return errors.New("server.address: must be specified")
	}

	if n.SessionCookie == "" {
		return errors.New("server.session_cookie: must be specified")
	}

	return nil
}

// Validate checks the tracking limits.
func (t *TrackingConfig) Validate() error {
	if t.LogLength <= 0 {
		return errors.New("tracking.log_length: must be positive")
	}

	if t.TickInterval <= 0 {
		return errors.New("tracking.tick_interval: must be positive")
	}

	if t.MovementRate < 0 {
		return errors.New("tracking.movement_rate: must not be negative")
	}

	if t.SessionTTL <= 0 {
		return errors.New("tracking.session_ttl: must be positive")
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("server.address", "127.0.0.1:8080")
	v.SetDefault("server.session_cookie", "footprint_session")
	v.SetDefault("tracking.log_length", 100)
	v.SetDefault("tracking.tick_interval", time.Second)
	v.SetDefault("tracking.movement_rate", 0)
	v.SetDefault("tracking.session_ttl", 30*time.Minute)
}

// Loader reads the configuration file and can watch it for changes.
type Loader struct {
	v *viper.Viper
}

// NewLoader prepares a loader for the YAML file at configPath.
// Environment variables override file values: TRACKING_SESSION_TTL overrides tracking.session_ttl.
func NewLoader(configPath string) *Loader {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return &Loader{v: v}
}

// Load reads, decodes and validates the configuration.
//
// Returns an error if:
// - the file is not found or inaccessible
// - the configuration has invalid format
// - one of the sections fails validation
func (l *Loader) Load() (*AppConfig, error) {
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return l.decode()
}

func (l *Loader) decode() (*AppConfig, error) {
	var config AppConfig
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Watch calls onChange with the re-read configuration each time the file changes.
// Changes that fail validation are reported through onError and otherwise ignored.
func (l *Loader) Watch(onChange func(*AppConfig), onError func(error)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		config, err := l.decode()
		if err != nil {
			onError(fmt.Errorf("%s: %w", e.Name, err))
			return
		}
		onChange(config)
	})
	l.v.WatchConfig()
}

// LoadConfig loads and validates the configuration stored at configPath.
func LoadConfig(configPath string) (*AppConfig, error) {
	return NewLoader(configPath).Load()
}
