package influx

import (
	"net/url"
	"strings"
	"time"

	"codeberg.org/mutker/diskgauge/internal/errors"
)

const (
	defaultRetentionPolicy = "autogen"
	defaultMeasurement     = "Load"
	defaultApp             = "ohm"
	defaultHardwareType    = "HDD"
	defaultSensor          = "Used Space"
	defaultField           = "value"
	defaultGroupTag        = "hardware"
	defaultLookback        = time.Hour
)

// Connection holds the parameters read once at startup.
type Connection struct {
	Host     string
	Database string
	Username string
	Password string
}

// QueryConfig identifies the series the gateway reads. The defaults select
// Open Hardware Monitor's "Used Space" sensor for hard disks.
type QueryConfig struct {
	RetentionPolicy string
	Org             string
	Measurement     string
	App             string
	HardwareType    string
	Sensor          string
	Field           string
	GroupTag        string
	Lookback        time.Duration
}

type Config struct {
	Connection Connection
	Query      QueryConfig
}

func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		RetentionPolicy: defaultRetentionPolicy,
		Measurement:     defaultMeasurement,
		App:             defaultApp,
		HardwareType:    defaultHardwareType,
		Sensor:          defaultSensor,
		Field:           defaultField,
		GroupTag:        defaultGroupTag,
		Lookback:        defaultLookback,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	var missing []string
	if c.Connection.Host == "" {
		missing = append(missing, "host")
	}
	if c.Connection.Database == "" {
		missing = append(missing, "database")
	}
	if c.Connection.Username == "" {
		missing = append(missing, "username")
	}
	if c.Connection.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return errFactory.WithData(ErrMissingParameter, strings.Join(missing, ", "))
	}

	if _, err := serverURL(c.Connection.Host); err != nil {
		return err
	}

	q := c.Query
	if q.Measurement == "" || q.Field == "" || q.GroupTag == "" {
		return errFactory.WithMessage(ErrInvalidQuery, "measurement, field and group tag are required")
	}
	if q.Lookback <= 0 {
		return errFactory.WithData(ErrInvalidQuery, struct {
			Field string
			Value time.Duration
		}{
			Field: "lookback",
			Value: q.Lookback,
		})
	}

	return nil
}

// serverURL accepts either a bare host:port or a full URL and returns the
// normalized base URL.
func serverURL(host string) (string, error) {
	errFactory := errors.New()

	raw := strings.TrimSpace(host)
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", errFactory.Wrap(ErrInvalidHost, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errFactory.WithData(ErrInvalidHost, host)
	}
	if u.Host == "" {
		return "", errFactory.WithData(ErrInvalidHost, host)
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// bucket maps an InfluxDB 1.x database and retention policy onto the 2.x
// bucket name understood by the compatibility API.
func (q QueryConfig) bucket(database string) string {
	if q.RetentionPolicy == "" {
		return database
	}
	return database + "/" + q.RetentionPolicy
}
