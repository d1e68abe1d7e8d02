package identity

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"fmt"

	"github.com/nerrad567/gray-logic-lamarzocco/internal/codec"
)

// SecretLength is the size of the derived shared secret in bytes.
const SecretLength = 32

// Identity is a device installation identity.
//
// All fields are set once by Generate or Load and never mutated afterwards;
// other packages treat an Identity as read-only.
type Identity struct {
	// ID is the installation UUID presented to the cloud.
	ID string

	// Secret is the 32-byte shared secret. It is a deterministic function
	// of ID and PublicKeyDER and must never change for the lifetime of
	// the registration.
	Secret []byte

	// PrivateKeyDER is the SEC1 DER encoding of the P-256 private key.
	PrivateKeyDER []byte

	// PublicKeyDER is the PKIX DER encoding of the P-256 public key.
	PublicKeyDER []byte
}

// Generate creates a fresh installation identity for the given installation
// id: a new P-256 keypair and the secret derived from id and public key.
//
// Parameters:
//   - id: Installation UUID (caller-generated, stable for the device)
//
// Returns:
//   - *Identity: Complete identity ready to persist and register
//   - error: ErrKeyGeneration if key generation or DER encoding fails
func Generate(id string) (*Identity, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyGeneration, err)
	}

	privDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding private key: %w", ErrKeyGeneration, err)
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding public key: %w", ErrKeyGeneration, err)
	}

	return &Identity{
		ID:            id,
		Secret:        deriveSecret(id, pubDER),
		PrivateKeyDER: privDER,
		PublicKeyDER:  pubDER,
	}, nil
}

// deriveSecret computes the shared secret:
//
//	SHA256(id + "." + b64(pubDER) + "." + b64(SHA256(id)))
//
// The two-stage hash binds the secret to both the installation id and the
// specific keypair, so it cannot be reused across devices.
func deriveSecret(id string, pubDER []byte) []byte {
	idHash := sha256.Sum256([]byte(id))
	triple := id + "." + codec.Base64Encode(pubDER) + "." + codec.Base64Encode(idHash[:])
	secret := sha256.Sum256([]byte(triple))
	return secret[:]
}

// BaseString returns the registration base string:
//
//	id + "." + b64(SHA256(pubDER))
//
// The base string depends only on the installation id and public key, never
// on the secret.
func (i *Identity) BaseString() string {
	pubHash := sha256.Sum256(i.PublicKeyDER)
	return i.ID + "." + codec.Base64Encode(pubHash[:])
}
