package identity

import "errors"

// Domain-specific errors for identity operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrIdentityMissing is returned when no complete identity exists in
	// the store. Partial state (some fields present, others absent or the
	// wrong size) is reported the same way, never as a usable identity.
	ErrIdentityMissing = errors.New("identity: no stored installation identity")

	// ErrSigningFailed is returned when the private key cannot be parsed,
	// the ECDSA signer fails, or the resulting DER signature exceeds the
	// expected maximum size for the curve.
	ErrSigningFailed = errors.New("identity: request signing failed")

	// ErrInvalidSecret is returned when a request proof is asked for with
	// a secret that is not exactly 32 bytes.
	ErrInvalidSecret = errors.New("identity: secret must be 32 bytes")

	// ErrKeyGeneration is returned when the P-256 keypair cannot be
	// generated or DER-encoded.
	ErrKeyGeneration = errors.New("identity: key generation failed")
)
