package influx

import "codeberg.org/mutker/diskgauge/internal/errors"

const (
	// Configuration Errors
	ErrMissingParameter = errors.ErrorCode("influx_missing_parameter")
	ErrInvalidHost      = errors.ErrorCode("influx_invalid_host")
	ErrInvalidQuery     = errors.ErrorCode("influx_invalid_query")

	// Query Errors
	ErrTransport = errors.ErrorCode("influx_transport_failed")
	ErrMalformed = errors.ErrorCode("influx_malformed_response")
	ErrEmpty     = errors.ErrorCode("influx_empty_result")
	ErrUnhealthy = errors.ErrorCode("influx_unhealthy")
)

func init() {
	errors.RegisterMessage(ErrMissingParameter, "Missing InfluxDB connection parameter")
	errors.RegisterMessage(ErrInvalidHost, "Invalid InfluxDB host")
	errors.RegisterMessage(ErrInvalidQuery, "Invalid query settings")
	errors.RegisterMessage(ErrTransport, "InfluxDB query failed")
	errors.RegisterMessage(ErrMalformed, "Unexpected InfluxDB response")
	errors.RegisterMessage(ErrEmpty, "InfluxDB returned no readings")
	errors.RegisterMessage(ErrUnhealthy, "InfluxDB is not healthy")
}
