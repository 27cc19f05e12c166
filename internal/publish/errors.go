package publish

import "codeberg.org/mutker/diskgauge/internal/errors"

const (
	ErrInvalidConfig = errors.ErrorCode("mqtt_invalid_config")
	ErrConnect       = errors.ErrorCode("mqtt_connect_failed")
	ErrPublish       = errors.ErrorCode("mqtt_publish_failed")
	ErrEncode        = errors.ErrorCode("mqtt_encode_failed")
)

func init() {
	errors.RegisterMessage(ErrInvalidConfig, "Invalid MQTT configuration")
	errors.RegisterMessage(ErrConnect, "Failed to connect to MQTT broker")
	errors.RegisterMessage(ErrPublish, "Failed to publish snapshot")
	errors.RegisterMessage(ErrEncode, "Failed to encode snapshot")
}
