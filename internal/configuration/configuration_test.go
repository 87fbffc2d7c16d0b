package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, "logger:\n  level: debug\n")

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", config.Logger.Level)
	assert.Equal(t, "127.0.0.1:8080", config.Server.Address)
	assert.Equal(t, "footprint_session", config.Server.SessionCookie)
	assert.Equal(t, 100, config.Tracking.LogLength)
	assert.Equal(t, time.Second, config.Tracking.TickInterval)
	assert.Zero(t, config.Tracking.MovementRate)
	assert.Equal(t, 30*time.Minute, config.Tracking.SessionTTL)
	assert.Empty(t, config.Insights.Rules)
}

func TestLoadConfig_FileValues(t *testing.T) {
	path := writeConfig(t, `
logger:
  level: WARN
  file: /tmp/footprint.log
  max_size: 10
  max_backups: 2
server:
  address: ":9090"
  static: ./static
  session_cookie: sid
tracking:
  log_length: 50
  tick_interval: 500ms
  movement_rate: 30
  session_ttl: 5m
insights:
  rules: ./rules.yaml
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "WARN", config.Logger.Level)
	assert.Equal(t, "/tmp/footprint.log", config.Logger.File)
	assert.Equal(t, 10, config.Logger.MaxSize)
	assert.Equal(t, 2, config.Logger.MaxBackups)
	assert.Equal(t, ":9090", config.Server.Address)
	assert.Equal(t, "./static", config.Server.Static)
	assert.Equal(t, "sid", config.Server.SessionCookie)
	assert.Equal(t, 50, config.Tracking.LogLength)
	assert.Equal(t, 500*time.Millisecond, config.Tracking.TickInterval)
	assert.Equal(t, 30.0, config.Tracking.MovementRate)
	assert.Equal(t, 5*time.Minute, config.Tracking.SessionTTL)
	assert.Equal(t, "./rules.yaml", config.Insights.Rules)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	path := writeConfig(t, "tracking:\n  log_length: 50\n")
	t.Setenv("TRACKING_LOG_LENGTH", "20")

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 20, config.Tracking.LogLength)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := writeConfig(t, "logger:\n  level: loud\n")
	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "logger.level")
}

func TestValidate(t *testing.T) {
	valid := func() AppConfig {
		return AppConfig{
			Logger:   LoggerConfig{Level: "info"},
			Server:   ServerConfig{Address: ":8080", SessionCookie: "sid"},
			Tracking: TrackingConfig{LogLength: 100, TickInterval: time.Second, SessionTTL: time.Minute},
		}
	}

	c := valid()
	assert.NoError(t, c.Validate())

	tests := map[string]func(*AppConfig){
		"empty level":       func(c *AppConfig) { c.Logger.Level = "" },
		"file without size": func(c *AppConfig) { c.Logger.File = "x.log" },
		"empty address":     func(c *AppConfig) { c.Server.Address = "" },
		"empty cookie":      func(c *AppConfig) { c.Server.SessionCookie = "" },
		"zero log length":   func(c *AppConfig) { c.Tracking.LogLength = 0 },
		"zero tick":         func(c *AppConfig) { c.Tracking.TickInterval = 0 },
		"negative rate":     func(c *AppConfig) { c.Tracking.MovementRate = -1 },
		"zero ttl":          func(c *AppConfig) { c.Tracking.SessionTTL = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
