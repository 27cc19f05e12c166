package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"codeberg.org/mutker/diskgauge/internal/errors"
	"codeberg.org/mutker/diskgauge/internal/influx"
	"codeberg.org/mutker/diskgauge/internal/metrics"
	"codeberg.org/mutker/diskgauge/internal/publish"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const (
	appName = "diskgauge"

	DefaultEnvPrefix    = "DISKGAUGE"
	DefaultDotEnv       = ".env"
	DefaultInterval     = 250 * time.Millisecond
	DefaultQueryTimeout = 10 * time.Second
	DefaultLogLevel     = LogLevelWarning
)

type Config struct {
	Influx       influx.Config
	Interval     time.Duration
	QueryTimeout time.Duration
	LogLevel     LogLevel
	LogFile      string
	Debug        bool
	Verbose      bool
	Metrics      metrics.Config
	MQTT         publish.Config

	// ConfigFile is the file that was read, empty if none.
	ConfigFile string
}

// flag name -> config key
var flagKeys = map[string]string{
	"debug":         "debug",
	"verbose":       "verbose",
	"interval":      "interval",
	"query-timeout": "query_timeout",
	"log-level":     "log_level",
	"log-file":      "log_file",
}

// Load reads, in increasing precedence: defaults, the config file, the
// environment (after .env), and flags. The DB_* variables carry the
// connection parameters; everything else uses the DISKGAUGE_ prefix.
func Load(opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := options{
		envPrefix: DefaultEnvPrefix,
		dotEnv:    DefaultDotEnv,
	}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	if o.dotEnv != "" {
		// Variables already in the environment win over the file.
		if err := gotenv.Load(o.dotEnv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range map[string]string{
		"influx.host":     "DB_HOST",
		"influx.database": "DB_NAME",
		"influx.username": "DB_USER",
		"influx.password": "DB_PASSWORD",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	if o.flags != nil {
		for name, key := range flagKeys {
			if f := o.flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errFactory.Wrap(errors.ErrBindFlags, err)
				}
			}
		}
		if o.configPath == "" {
			if f := o.flags.Lookup("config"); f != nil {
				o.configPath = f.Value.String()
			}
		}
	}
	if o.configPath == "" {
		o.configPath = os.Getenv(o.envPrefix + "_CONFIG")
	}

	if err := readConfigFile(v, o.configPath); err != nil {
		return nil, err
	}

	cfg := &Config{
		Influx: influx.Config{
			Connection: influx.Connection{
				Host:     v.GetString("influx.host"),
				Database: v.GetString("influx.database"),
				Username: v.GetString("influx.username"),
				Password: v.GetString("influx.password"),
			},
			Query: influx.QueryConfig{
				RetentionPolicy: v.GetString("query.retention_policy"),
				Org:             v.GetString("query.org"),
				Measurement:     v.GetString("query.measurement"),
				App:             v.GetString("query.app"),
				HardwareType:    v.GetString("query.hardware_type"),
				Sensor:          v.GetString("query.sensor"),
				Field:           v.GetString("query.field"),
				GroupTag:        v.GetString("query.group_tag"),
				Lookback:        duration(v, "query.lookback"),
			},
		},
		Interval:     duration(v, "interval"),
		QueryTimeout: duration(v, "query_timeout"),
		LogLevel:     LogLevel(strings.ToLower(v.GetString("log_level"))),
		LogFile:      v.GetString("log_file"),
		Debug:        v.GetBool("debug"),
		Verbose:      v.GetBool("verbose"),
		Metrics: metrics.Config{
			Enabled: v.GetBool("metrics.enabled"),
			Window:  v.GetInt("metrics.window"),
		},
		MQTT: publish.Config{
			Enabled:  v.GetBool("mqtt.enabled"),
			Broker:   v.GetString("mqtt.broker"),
			Topic:    v.GetString("mqtt.topic"),
			ClientID: v.GetString("mqtt.client_id"),
			Username: v.GetString("mqtt.username"),
			Password: v.GetString("mqtt.password"),
		},
		ConfigFile: v.ConfigFileUsed(),
	}

	switch {
	case cfg.Debug:
		cfg.LogLevel = LogLevelDebug
	case cfg.Verbose:
		cfg.LogLevel = LogLevelInfo
	case cfg.LogLevel == "warn":
		cfg.LogLevel = LogLevelWarning
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	q := influx.DefaultQueryConfig()
	v.SetDefault("query.retention_policy", q.RetentionPolicy)
	v.SetDefault("query.org", q.Org)
	v.SetDefault("query.measurement", q.Measurement)
	v.SetDefault("query.app", q.App)
	v.SetDefault("query.hardware_type", q.HardwareType)
	v.SetDefault("query.sensor", q.Sensor)
	v.SetDefault("query.field", q.Field)
	v.SetDefault("query.group_tag", q.GroupTag)
	v.SetDefault("query.lookback", q.Lookback)

	v.SetDefault("interval", DefaultInterval)
	v.SetDefault("query_timeout", DefaultQueryTimeout)
	v.SetDefault("log_level", string(DefaultLogLevel))
	v.SetDefault("log_file", defaultLogFile())

	m := metrics.DefaultConfig()
	v.SetDefault("metrics.enabled", m.Enabled)
	v.SetDefault("metrics.window", m.Window)

	p := publish.DefaultConfig()
	v.SetDefault("mqtt.enabled", p.Enabled)
	v.SetDefault("mqtt.broker", p.Broker)
	v.SetDefault("mqtt.topic", p.Topic)
	v.SetDefault("mqtt.client_id", p.ClientID)
}

func readConfigFile(v *viper.Viper, path string) error {
	errFactory := errors.New()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return errFactory.Wrap(errors.ErrReadConfig, err)
		}
		return nil
	}

	v.SetConfigName(appName)
	v.SetConfigType("toml")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, appName))
	}
	v.AddConfigPath(filepath.Join("/etc", appName))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errFactory.Wrap(errors.ErrReadConfig, err)
	}
	return nil
}

// duration reads key as a duration. Bare numbers are taken as seconds, so
// that "interval = 2" in a config file means two seconds.
func duration(v *viper.Viper, key string) time.Duration {
	switch raw := v.Get(key).(type) {
	case int:
		return time.Duration(raw) * time.Second
	case int64:
		return time.Duration(raw) * time.Second
	case float64:
		return time.Duration(raw * float64(time.Second))
	case string:
		if secs, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return time.Duration(secs * float64(time.Second))
		}
		return v.GetDuration(key)
	default:
		return v.GetDuration(key)
	}
}

func defaultLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appName+".log")
	}
	return filepath.Join(dir, appName, appName+".log")
}

func (c *Config) Validate() error {
	errFactory := errors.New()

	var missing []string
	for _, p := range []struct{ env, value string }{
		{"DB_HOST", c.Influx.Connection.Host},
		{"DB_NAME", c.Influx.Connection.Database},
		{"DB_USER", c.Influx.Connection.Username},
		{"DB_PASSWORD", c.Influx.Connection.Password},
	} {
		if strings.TrimSpace(p.value) == "" {
			missing = append(missing, p.env)
		}
	}
	if len(missing) > 0 {
		return errFactory.WithData(errors.ErrMissingConfig, strings.Join(missing, ", "))
	}

	if err := c.Influx.Validate(); err != nil {
		return errFactory.Wrap(errors.ErrInvalidConfig, err)
	}
	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}
	if c.QueryTimeout < 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, "query_timeout must not be negative")
	}
	if !c.LogLevel.IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}
	if err := c.Metrics.Validate(); err != nil {
		return errFactory.Wrap(errors.ErrInvalidConfig, err)
	}
	if err := c.MQTT.Validate(); err != nil {
		return errFactory.Wrap(errors.ErrInvalidConfig, err)
	}
	return nil
}
