package codec

import "errors"

// Domain-specific errors for codec operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotAFrame is returned when a payload has no header/body separator
	// and therefore cannot be parsed as a STOMP frame.
	ErrNotAFrame = errors.New("codec: payload is not a STOMP frame")

	// ErrInvalidBase64 is returned when a base64 payload cannot be decoded
	// even after trimming trailing non-alphabet bytes.
	ErrInvalidBase64 = errors.New("codec: invalid base64 payload")
)
