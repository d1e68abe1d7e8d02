package identity

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"fmt"
	"strconv"
	"time"

	"github.com/nerrad567/gray-logic-lamarzocco/internal/codec"
)

// maxSignatureDERLength is the largest DER ECDSA signature accepted for
// P-256. The encoding tops out around 72 bytes; headroom to 80 guards
// against a misbehaving signer rather than a longer legitimate signature.
const maxSignatureDERLength = 80

// SignedHeaders are the per-request authentication headers attached to
// every REST call and to the realtime connection upgrade.
//
// They are ephemeral: a fresh nonce and timestamp are generated for every
// request, and values are never stored or reused.
type SignedHeaders struct {
	// InstallationID is the X-App-Installation-Id header value.
	InstallationID string

	// Timestamp is the X-Timestamp value: milliseconds since epoch as a
	// decimal string.
	Timestamp string

	// Nonce is the X-Nonce value: a fresh version-4 UUID.
	Nonce string

	// Signature is the X-Request-Signature value: base64 of the DER ECDSA
	// signature over the proof input and proof.
	Signature string
}

// SignedHeaders produces fresh signed request headers for this identity.
//
// The signature covers proofInput = "id.nonce.timestamp" together with the
// request proof over that input: SHA-256 of "proofInput.proof" is signed
// with the P-256 private key and DER-encoded.
//
// Returns:
//   - SignedHeaders: Complete header set for one request
//   - error: ErrSigningFailed if the key cannot be parsed, signing fails,
//     or the signature exceeds the expected DER size
func (i *Identity) SignedHeaders() (SignedHeaders, error) {
	nonce := codec.NewUUID()
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	return i.signedHeadersAt(nonce, timestamp)
}

// signedHeadersAt is the deterministic core of SignedHeaders, split out so
// tests can pin nonce and timestamp.
func (i *Identity) signedHeadersAt(nonce, timestamp string) (SignedHeaders, error) {
	proofInput := i.ID + "." + nonce + "." + timestamp

	proof, err := RequestProof(proofInput, i.Secret)
	if err != nil {
		return SignedHeaders{}, fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}

	key, err := x509.ParseECPrivateKey(i.PrivateKeyDER)
	if err != nil {
		return SignedHeaders{}, fmt.Errorf("%w: parsing private key: %w", ErrSigningFailed, err)
	}

	digest := sha256.Sum256([]byte(proofInput + "." + proof))
	signature, err := ecdsa.SignASN1(rand.Reader, key, digest[:])
	if err != nil {
		return SignedHeaders{}, fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}
	if len(signature) == 0 || len(signature) > maxSignatureDERLength {
		return SignedHeaders{}, fmt.Errorf("%w: signature length %d out of range", ErrSigningFailed, len(signature))
	}

	return SignedHeaders{
		InstallationID: i.ID,
		Timestamp:      timestamp,
		Nonce:          nonce,
		Signature:      codec.Base64Encode(signature),
	}, nil
}

// Verify checks a signature produced by signedHeadersAt against this
// identity's public key. Used by tests and diagnostic tooling; the cloud
// performs the real verification.
func (i *Identity) Verify(h SignedHeaders) bool {
	pub, err := x509.ParsePKIXPublicKey(i.PublicKeyDER)
	if err != nil {
		return false
	}
	ecPub, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return false
	}

	proofInput := h.InstallationID + "." + h.Nonce + "." + h.Timestamp
	proof, err := RequestProof(proofInput, i.Secret)
	if err != nil {
		return false
	}

	signature, err := codec.Base64Decode(h.Signature)
	if err != nil {
		return false
	}

	digest := sha256.Sum256([]byte(proofInput + "." + proof))
	return ecdsa.VerifyASN1(ecPub, digest[:], signature)
}
