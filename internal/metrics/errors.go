package metrics

import "codeberg.org/mutker/diskgauge/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrInvalidWindow = errors.ErrorCode("metrics_invalid_window")

	// Collection Errors
	ErrInvalidSample = errors.ErrorCode("metrics_invalid_sample")
	ErrClosed        = errors.ErrorCode("metrics_collector_closed")

	// Operation Errors
	ErrOperationTimeout = errors.ErrTimeout
)

func init() {
	errors.RegisterMessage(ErrInvalidWindow, "Metrics window out of range")
	errors.RegisterMessage(ErrInvalidSample, "Invalid poll sample")
	errors.RegisterMessage(ErrClosed, "Metrics collector closed")
}
