package tsdb

import "errors"

// Domain-specific errors for telemetry recording.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrDisabled is returned by Connect when InfluxDB is disabled in config.
	ErrDisabled = errors.New("tsdb: influxdb is disabled in configuration")

	// ErrConnectionFailed is returned when the initial connection attempt fails.
	ErrConnectionFailed = errors.New("tsdb: connection failed")

	// ErrNotConnected is returned when attempting operations on a closed recorder.
	ErrNotConnected = errors.New("tsdb: not connected")
)
