package codec

import "encoding/base64"

// Base64Encode encodes data using the standard RFC 4648 alphabet with
// '=' padding.
func Base64Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// Base64Decode decodes a base64 string using the standard alphabet.
//
// The decoder is deliberately permissive to match the cloud's historical
// clients: scanning stops at the first byte that is neither part of the
// base64 alphabet nor padding, and only the prefix before it is decoded.
// Trailing garbage after a valid payload is therefore ignored rather than
// rejected.
//
// Parameters:
//   - encoded: Base64 text, optionally followed by non-alphabet bytes
//
// Returns:
//   - []byte: Decoded bytes (empty slice for empty input)
//   - error: ErrInvalidBase64 if the alphabet prefix itself is malformed
func Base64Decode(encoded string) ([]byte, error) {
	end := len(encoded)
	for i := 0; i < len(encoded); i++ {
		if !isBase64Byte(encoded[i]) {
			end = i
			break
		}
	}

	prefix := encoded[:end]
	if len(prefix) == 0 {
		return []byte{}, nil
	}

	// Padding may follow the alphabet prefix; include it only if it
	// completes a quantum, otherwise decode the raw prefix alone.
	padded := end
	for padded < len(encoded) && encoded[padded] == '=' {
		padded++
	}

	var decoded []byte
	var err error
	if padded%4 == 0 && padded > end {
		decoded, err = base64.StdEncoding.DecodeString(encoded[:padded])
		if err != nil {
			// Over-padding (e.g. "AAAA====") completes a quantum yet is
			// not valid padded base64; decode the alphabet prefix alone,
			// matching the historical clients.
			decoded, err = base64.RawStdEncoding.DecodeString(prefix)
		}
	} else {
		decoded, err = base64.RawStdEncoding.DecodeString(prefix)
	}
	if err != nil {
		return nil, ErrInvalidBase64
	}
	return decoded, nil
}

// isBase64Byte reports whether b belongs to the standard base64 alphabet
// (excluding padding).
func isBase64Byte(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z':
		return true
	case b >= 'a' && b <= 'z':
		return true
	case b >= '0' && b <= '9':
		return true
	case b == '+' || b == '/':
		return true
	default:
		return false
	}
}
