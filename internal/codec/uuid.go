package codec

import "github.com/google/uuid"

// NewUUID returns a random version-4 UUID as a lowercase hyphenated string
// (8-4-4-4-12 layout, RFC 4122 variant bits set).
//
// UUIDs are used as request nonces and STOMP subscription identifiers; the
// cloud rejects values that do not carry the version/variant bits.
func NewUUID() string {
	return uuid.NewString()
}
