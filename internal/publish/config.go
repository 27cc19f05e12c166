package publish

import (
	"net/url"
	"strings"

	"codeberg.org/mutker/diskgauge/internal/errors"
)

const (
	DefaultBroker   = "tcp://localhost:1883"
	DefaultTopic    = "diskgauge/usage"
	DefaultClientID = "diskgauge"
)

// Config controls snapshot forwarding to an MQTT broker.
type Config struct {
	Enabled  bool
	Broker   string
	Topic    string
	ClientID string
	Username string
	Password string
}

func DefaultConfig() Config {
	return Config{
		Broker:   DefaultBroker,
		Topic:    DefaultTopic,
		ClientID: DefaultClientID,
	}
}

// Validate is a no-op when forwarding is disabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	errFactory := errors.New()

	if strings.TrimSpace(c.Topic) == "" {
		return errFactory.WithMessage(ErrInvalidConfig, "mqtt topic is required")
	}
	if strings.ContainsAny(c.Topic, "+#") {
		return errFactory.WithData(ErrInvalidConfig, "wildcards are not allowed in a publish topic: "+c.Topic)
	}

	u, err := url.Parse(c.Broker)
	if err != nil || u.Host == "" {
		return errFactory.WithData(ErrInvalidConfig, "invalid broker: "+c.Broker)
	}
	switch u.Scheme {
	case "tcp", "ssl", "tls", "mqtt", "mqtts", "ws", "wss":
	default:
		return errFactory.WithData(ErrInvalidConfig, "unsupported broker scheme: "+u.Scheme)
	}

	return nil
}
