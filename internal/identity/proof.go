package identity

import (
	"crypto/sha256"
	"math/bits"

	"github.com/nerrad567/gray-logic-lamarzocco/internal/codec"
)

// RequestProof computes the keyed request proof over baseString.
//
// The transform is the one fixed by the cloud service, reproduced
// byte-for-byte: a 32-byte working buffer starts as a copy of the secret,
// and each input byte mutates exactly one buffer cell in turn. For input
// byte b:
//
//	idx   = b mod 32
//	shift = work[(idx+1) mod 32] & 7
//	work[idx] = rotl8(b XOR work[idx], shift)
//
// The result is b64(SHA256(work)). The loop is stateful and
// order-sensitive; it must stay strictly sequential.
//
// Parameters:
//   - baseString: Input text (registration base string or proof input)
//   - secret: The 32-byte installation secret
//
// Returns:
//   - string: Base64 proof value
//   - error: ErrInvalidSecret if secret is not exactly 32 bytes
func RequestProof(baseString string, secret []byte) (string, error) {
	if len(secret) != SecretLength {
		return "", ErrInvalidSecret
	}

	var work [SecretLength]byte
	copy(work[:], secret)

	for i := 0; i < len(baseString); i++ {
		b := baseString[i]
		idx := int(b) % SecretLength
		shift := work[(idx+1)%SecretLength] & 7
		work[idx] = bits.RotateLeft8(b^work[idx], int(shift))
	}

	digest := sha256.Sum256(work[:])
	return codec.Base64Encode(digest[:]), nil
}
