// Package identity manages the device installation identity for the
// La Marzocco cloud.
//
// An installation identity consists of:
//
//   - A version-4 installation UUID
//   - A P-256 keypair (DER-encoded, SEC1 private / PKIX public)
//   - A 32-byte shared secret derived deterministically from the
//     installation id and the public key
//
// The identity is generated once, persisted through a small key/value
// collaborator, and loaded on every subsequent start. The private key and
// the raw secret never leave the device; requests instead carry a request
// proof (a keyed transform over the secret) and a DER ECDSA signature.
//
// # Compatibility
//
// The request proof is a bespoke construction fixed by the cloud service.
// Its exact byte behaviour is a compatibility requirement: the transform is
// stateful and strictly sequential, and must not be reordered, parallelised
// or replaced with a standard MAC.
//
// # Thread Safety
//
// An Identity is immutable after Generate or Load and may be read
// concurrently without synchronisation.
package identity
