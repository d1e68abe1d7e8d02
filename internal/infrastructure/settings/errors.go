package settings

import "errors"

var (
	// ErrKeyTooLong indicates a key longer than MaxKeyLength characters.
	ErrKeyTooLong = errors.New("settings: key exceeds maximum length")

	// ErrEmptyKey indicates an empty key.
	ErrEmptyKey = errors.New("settings: key is empty")
)
