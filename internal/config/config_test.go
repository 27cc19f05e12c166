package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/diskgauge/internal/config"
	"codeberg.org/mutker/diskgauge/internal/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the config search path at an empty directory and sets the
// required connection variables.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("DISKGAUGE_CONFIG", "")
	t.Setenv("DB_HOST", "influx.lan:8086")
	t.Setenv("DB_NAME", "ohm")
	t.Setenv("DB_USER", "reader")
	t.Setenv("DB_PASSWORD", "secret")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "diskgauge.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := config.Load(config.WithDotEnv(""))
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, "influx.lan:8086", cfg.Influx.Connection.Host)
	assert.Equal(t, "ohm", cfg.Influx.Connection.Database)
	assert.Equal(t, "reader", cfg.Influx.Connection.Username)
	assert.Equal(t, "secret", cfg.Influx.Connection.Password)

	assert.Equal(t, config.DefaultInterval, cfg.Interval)
	assert.Equal(t, config.DefaultQueryTimeout, cfg.QueryTimeout)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, "Used Space", cfg.Influx.Query.Sensor)
	assert.Equal(t, "hardware", cfg.Influx.Query.GroupTag)
	assert.Equal(t, time.Hour, cfg.Influx.Query.Lookback)
	assert.True(t, cfg.Metrics.Enabled)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "diskgauge.log", filepath.Base(cfg.LogFile))
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoadConfigFile(t *testing.T) {
	isolate(t)

	path := writeConfig(t, `
interval = 2
query_timeout = "30s"
log_level = "info"

[query]
sensor = "Free Space"
lookback = "6h"

[metrics]
window = 10

[mqtt]
enabled = true
broker = "tcp://broker.lan:1883"
topic = "lab/disks"
`)

	cfg, err := config.Load(config.WithDotEnv(""), config.WithConfigFile(path))
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, 2*time.Second, cfg.Interval, "bare numbers are seconds")
	assert.Equal(t, 30*time.Second, cfg.QueryTimeout)
	assert.Equal(t, config.LogLevelInfo, cfg.LogLevel)
	assert.Equal(t, "Free Space", cfg.Influx.Query.Sensor)
	assert.Equal(t, "Load", cfg.Influx.Query.Measurement)
	assert.Equal(t, 6*time.Hour, cfg.Influx.Query.Lookback)
	assert.Equal(t, 10, cfg.Metrics.Window)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "tcp://broker.lan:1883", cfg.MQTT.Broker)
	assert.Equal(t, "lab/disks", cfg.MQTT.Topic)
	assert.Equal(t, "diskgauge", cfg.MQTT.ClientID)
}

func TestLoadConfigFileFromEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("DISKGAUGE_CONFIG", writeConfig(t, `log_level = "error"`))

	cfg, err := config.Load(config.WithDotEnv(""))
	require.NoError(t, err)
	assert.Equal(t, config.LogLevelError, cfg.LogLevel)
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "This is not a valid TOML file\n")

	_, err := config.Load(config.WithDotEnv(""), config.WithConfigFile(path))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestLoadMissingConnectionVariables(t *testing.T) {
	isolate(t)
	t.Setenv("DB_NAME", "")
	t.Setenv("DB_PASSWORD", "")

	_, err := config.Load(config.WithDotEnv(""))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrMissingConfig))
	assert.Contains(t, err.Error(), "DB_NAME, DB_PASSWORD")
}

func TestInvalidLogLevel(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `log_level = "invalid"`)

	_, err := config.Load(config.WithDotEnv(""), config.WithConfigFile(path))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidLogLevel))
}

func TestInvalidInterval(t *testing.T) {
	isolate(t)
	t.Setenv("DISKGAUGE_INTERVAL", "0s")

	_, err := config.Load(config.WithDotEnv(""))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidInterval))
}

func TestPrefixedEnvironmentOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("DISKGAUGE_INTERVAL", "5s")
	t.Setenv("DISKGAUGE_QUERY_TIMEOUT", "0")
	t.Setenv("DISKGAUGE_QUERY_SENSOR", "Used Space Total")
	t.Setenv("DISKGAUGE_MQTT_ENABLED", "true")
	t.Setenv("DISKGAUGE_MQTT_TOPIC", "env/disks")

	cfg, err := config.Load(config.WithDotEnv(""))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Interval)
	assert.Zero(t, cfg.QueryTimeout)
	assert.Equal(t, "Used Space Total", cfg.Influx.Query.Sensor)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "env/disks", cfg.MQTT.Topic)
}

func TestInvalidMQTTConfig(t *testing.T) {
	isolate(t)
	t.Setenv("DISKGAUGE_MQTT_ENABLED", "true")
	t.Setenv("DISKGAUGE_MQTT_BROKER", "not a url")

	_, err := config.Load(config.WithDotEnv(""))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidConfig))
}

func TestFlagsOverride(t *testing.T) {
	isolate(t)
	t.Setenv("DISKGAUGE_INTERVAL", "5s")

	fs := pflag.NewFlagSet("diskgauge", pflag.ContinueOnError)
	fs.Bool("debug", false, "")
	fs.Bool("verbose", false, "")
	fs.Duration("interval", config.DefaultInterval, "")
	fs.String("config", "", "")
	require.NoError(t, fs.Parse([]string{"--debug", "--interval", "750ms"}))

	cfg, err := config.Load(config.WithDotEnv(""), config.WithFlags(fs))
	require.NoError(t, err)

	assert.Equal(t, 750*time.Millisecond, cfg.Interval)
	assert.True(t, cfg.Debug)
	assert.Equal(t, config.LogLevelDebug, cfg.LogLevel)
}

func TestVerboseFlag(t *testing.T) {
	isolate(t)

	fs := pflag.NewFlagSet("diskgauge", pflag.ContinueOnError)
	fs.Bool("verbose", false, "")
	require.NoError(t, fs.Parse([]string{"--verbose"}))

	cfg, err := config.Load(config.WithDotEnv(""), config.WithFlags(fs))
	require.NoError(t, err)
	assert.Equal(t, config.LogLevelInfo, cfg.LogLevel)
}

func TestDotEnvFile(t *testing.T) {
	isolate(t)
	// Already set variables win over the file.
	t.Setenv("DB_HOST", "from-environment:8086")
	for _, key := range []string{"DB_NAME", "DB_USER", "DB_PASSWORD"} {
		require.NoError(t, os.Unsetenv(key))
	}
	t.Cleanup(func() {
		for _, key := range []string{"DB_NAME", "DB_USER", "DB_PASSWORD"} {
			_ = os.Unsetenv(key)
		}
	})

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"DB_HOST=from-file:8086\nDB_NAME=metrics\nDB_USER=dotenv\nDB_PASSWORD=hunter2\n"), 0o600))

	cfg, err := config.Load(config.WithDotEnv(path))
	require.NoError(t, err)

	assert.Equal(t, "from-environment:8086", cfg.Influx.Connection.Host)
	assert.Equal(t, "metrics", cfg.Influx.Connection.Database)
	assert.Equal(t, "dotenv", cfg.Influx.Connection.Username)
	assert.Equal(t, "hunter2", cfg.Influx.Connection.Password)
}

func TestMissingDotEnvIsIgnored(t *testing.T) {
	isolate(t)

	_, err := config.Load(config.WithDotEnv(filepath.Join(t.TempDir(), "absent.env")))
	assert.NoError(t, err)
}

func TestLogLevelIsValid(t *testing.T) {
	assert.True(t, config.LogLevelWarning.IsValid())
	assert.False(t, config.LogLevel("verbose").IsValid())
	assert.Equal(t, "debug", config.LogLevelDebug.String())
}
