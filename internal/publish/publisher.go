// Package publish forwards each fresh snapshot to an MQTT topic.
package publish

import (
	"context"
	"time"

	"codeberg.org/mutker/diskgauge/internal/errors"
	"codeberg.org/mutker/diskgauge/internal/logger"
	"codeberg.org/mutker/diskgauge/internal/usage"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	connectWait       = 2 * time.Second
	publishWait       = 250 * time.Millisecond
	disconnectQuiesce = 250 // milliseconds
	keepAlive         = 30 * time.Second
)

// client is the part of pahomqtt.Client the publisher uses.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	Disconnect(quiesce uint)
}

// Publisher sends snapshots with QoS 0, not retained. It never blocks the
// caller for longer than a short bounded wait.
type Publisher struct {
	client client
	topic  string
	wait   time.Duration
}

type payload struct {
	Time     string         `json:"time"`
	Readings usage.Snapshot `json:"readings"`
}

// Connect starts the MQTT client. An unreachable broker is not an error:
// the client keeps retrying in the background and publishes fail until it
// connects.
func Connect(cfg Config) (*Publisher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(connectWait)
	opts.SetKeepAlive(keepAlive)
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		logger.Warn().Err(err).Str("broker", cfg.Broker).Msg("MQTT connection lost")
	})
	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		logger.Debug().Str("broker", cfg.Broker).Msg("MQTT connected")
	})

	c := pahomqtt.NewClient(opts)
	token := c.Connect()
	if token.WaitTimeout(connectWait) {
		if err := token.Error(); err != nil {
			return nil, errors.New().Wrap(ErrConnect, err)
		}
	} else {
		logger.Warn().Str("broker", cfg.Broker).Msg("MQTT broker not reachable yet, retrying in background")
	}

	return newPublisher(c, cfg.Topic), nil
}

func newPublisher(c client, topic string) *Publisher {
	return &Publisher{client: c, topic: topic, wait: publishWait}
}

// Publish encodes snap and hands it to the client.
func (p *Publisher) Publish(ctx context.Context, snap usage.Snapshot, at time.Time) error {
	errFactory := errors.New()

	body, err := Encode(snap, at)
	if err != nil {
		return errFactory.Wrap(ErrEncode, err)
	}

	token := p.client.Publish(p.topic, 0, false, body)

	timer := time.NewTimer(p.wait)
	defer timer.Stop()

	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return errFactory.Wrap(ErrPublish, err)
		}
		return nil
	case <-timer.C:
		// QoS 0 has no acknowledgement to wait for; leave it with the client.
		logger.Debug().Str("topic", p.topic).Msg("Snapshot publish still pending")
		return nil
	case <-ctx.Done():
		return errFactory.Wrap(ErrPublish, ctx.Err())
	}
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	p.client.Disconnect(disconnectQuiesce)
	return nil
}

// Encode renders the MQTT payload for snap.
func Encode(snap usage.Snapshot, at time.Time) ([]byte, error) {
	if snap == nil {
		snap = usage.Snapshot{}
	}
	return json.Marshal(payload{
		Time:     at.UTC().Format(time.RFC3339),
		Readings: snap,
	})
}
