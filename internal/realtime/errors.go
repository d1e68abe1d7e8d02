package realtime

import "errors"

// Domain-specific errors for realtime channel operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrAlreadyConnected is returned when Connect is called on a channel
	// that is mid-handshake; callers disconnect first or wait.
	ErrAlreadyConnected = errors.New("realtime: channel already connecting or connected")

	// ErrDialFailed is returned when the websocket upgrade fails.
	ErrDialFailed = errors.New("realtime: websocket dial failed")

	// ErrHandshakeFailed is returned when the STOMP CONNECT frame cannot
	// be sent on a freshly opened transport.
	ErrHandshakeFailed = errors.New("realtime: STOMP handshake failed")
)
