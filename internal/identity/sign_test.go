package identity

import (
	"errors"
	"regexp"
	"strconv"
	"testing"
)

func TestSignedHeaders(t *testing.T) {
	id, err := Generate("abc-uuid")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	headers, err := id.SignedHeaders()
	if err != nil {
		t.Fatalf("SignedHeaders() error = %v", err)
	}

	if headers.InstallationID != "abc-uuid" {
		t.Errorf("InstallationID = %q, want %q", headers.InstallationID, "abc-uuid")
	}
	if _, err := strconv.ParseInt(headers.Timestamp, 10, 64); err != nil {
		t.Errorf("Timestamp %q is not a decimal integer", headers.Timestamp)
	}
	if matched, _ := regexp.MatchString(`^[0-9a-f-]{36}$`, headers.Nonce); !matched {
		t.Errorf("Nonce %q is not a hyphenated UUID", headers.Nonce)
	}
	if headers.Signature == "" {
		t.Error("Signature is empty")
	}

	if !id.Verify(headers) {
		t.Error("signature does not verify against the identity's public key")
	}
}

func TestSignedHeadersFreshNoncePerCall(t *testing.T) {
	id, err := Generate("abc-uuid")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	first, err := id.SignedHeaders()
	if err != nil {
		t.Fatalf("SignedHeaders() error = %v", err)
	}
	second, err := id.SignedHeaders()
	if err != nil {
		t.Fatalf("SignedHeaders() error = %v", err)
	}

	if first.Nonce == second.Nonce {
		t.Error("nonce reused across requests")
	}
	if first.Signature == second.Signature {
		t.Error("signature reused across requests")
	}
}

func TestSignedHeadersPinnedInputs(t *testing.T) {
	id, err := Generate("abc-uuid")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	headers, err := id.signedHeadersAt("11111111-2222-4333-8444-555555555555", "1700000000000")
	if err != nil {
		t.Fatalf("signedHeadersAt() error = %v", err)
	}
	if headers.Nonce != "11111111-2222-4333-8444-555555555555" {
		t.Errorf("Nonce = %q, want pinned nonce", headers.Nonce)
	}
	if headers.Timestamp != "1700000000000" {
		t.Errorf("Timestamp = %q, want pinned timestamp", headers.Timestamp)
	}
	if !id.Verify(headers) {
		t.Error("pinned-input signature does not verify")
	}

	// Tampering with any covered field must break verification.
	tampered := headers
	tampered.Timestamp = "1700000000001"
	if id.Verify(tampered) {
		t.Error("signature verified despite tampered timestamp")
	}
}

func TestSignedHeadersErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Identity)
	}{
		{
			name:   "corrupt private key",
			mutate: func(i *Identity) { i.PrivateKeyDER = []byte{0x30, 0x01, 0x00} },
		},
		{
			name:   "empty private key",
			mutate: func(i *Identity) { i.PrivateKeyDER = nil },
		},
		{
			name:   "wrong secret length",
			mutate: func(i *Identity) { i.Secret = i.Secret[:16] },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := Generate("abc-uuid")
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			tt.mutate(id)

			_, err = id.SignedHeaders()
			if !errors.Is(err, ErrSigningFailed) {
				t.Errorf("SignedHeaders() error = %v, want ErrSigningFailed", err)
			}
		})
	}
}
