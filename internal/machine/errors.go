package machine

import "errors"

var (
	// ErrNoSerial indicates a Machine was constructed without a serial number.
	ErrNoSerial = errors.New("machine: serial number not set")

	// ErrInvalidTelemetry indicates a dashboard document that could not be
	// parsed as JSON.
	ErrInvalidTelemetry = errors.New("machine: invalid telemetry document")
)
