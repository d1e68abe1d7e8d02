package cloud

import (
	"errors"
	"fmt"
)

// Domain-specific errors for cloud operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrAuthFailed is returned when sign-in is rejected or the token
	// response is malformed. Callers surface this as "check credentials".
	ErrAuthFailed = errors.New("cloud: authentication failed")

	// ErrRegistrationFailed is returned when the installation cannot be
	// registered with the cloud.
	ErrRegistrationFailed = errors.New("cloud: installation registration failed")

	// ErrUnsupportedMethod is returned for HTTP methods other than
	// GET, POST, PUT and DELETE.
	ErrUnsupportedMethod = errors.New("cloud: unsupported HTTP method")
)

// APIError is a non-2xx REST response. The body is kept verbatim; it is
// frequently not JSON.
type APIError struct {
	Status int
	Body   []byte
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("cloud: API call failed with status %d", e.Status)
}
