package identity

import (
	"bytes"
	"crypto/sha256"
	"crypto/x509"
	"strings"
	"testing"

	"github.com/nerrad567/gray-logic-lamarzocco/internal/codec"
)

func TestGenerate(t *testing.T) {
	id, err := Generate("abc-uuid")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if id.ID != "abc-uuid" {
		t.Errorf("ID = %q, want %q", id.ID, "abc-uuid")
	}
	if len(id.Secret) != SecretLength {
		t.Errorf("secret length = %d, want %d", len(id.Secret), SecretLength)
	}
	if len(id.PrivateKeyDER) == 0 {
		t.Error("private key DER is empty")
	}
	if len(id.PublicKeyDER) == 0 {
		t.Error("public key DER is empty")
	}

	// DER encodings must parse back as P-256 material.
	if _, err := x509.ParseECPrivateKey(id.PrivateKeyDER); err != nil {
		t.Errorf("private key does not parse: %v", err)
	}
	if _, err := x509.ParsePKIXPublicKey(id.PublicKeyDER); err != nil {
		t.Errorf("public key does not parse: %v", err)
	}
}

func TestGenerateSecretDerivation(t *testing.T) {
	id, err := Generate("abc-uuid")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	// Secret is SHA256(id + "." + b64(pubDER) + "." + b64(SHA256(id))):
	// deterministic given id and public key, never random.
	idHash := sha256.Sum256([]byte(id.ID))
	triple := id.ID + "." + codec.Base64Encode(id.PublicKeyDER) + "." + codec.Base64Encode(idHash[:])
	want := sha256.Sum256([]byte(triple))

	if !bytes.Equal(id.Secret, want[:]) {
		t.Errorf("secret = %x, want %x", id.Secret, want)
	}
}

func TestGenerateDistinctKeypairs(t *testing.T) {
	first, err := Generate("abc-uuid")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	second, err := Generate("abc-uuid")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if bytes.Equal(first.PrivateKeyDER, second.PrivateKeyDER) {
		t.Error("two generations produced the same private key")
	}
	// Same id but different keypair must yield a different secret.
	if bytes.Equal(first.Secret, second.Secret) {
		t.Error("two generations produced the same secret")
	}
}

func TestBaseString(t *testing.T) {
	id, err := Generate("abc-uuid")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	pubHash := sha256.Sum256(id.PublicKeyDER)
	want := "abc-uuid." + codec.Base64Encode(pubHash[:])

	if got := id.BaseString(); got != want {
		t.Errorf("BaseString() = %q, want %q", got, want)
	}
	if !strings.HasPrefix(id.BaseString(), "abc-uuid.") {
		t.Errorf("BaseString() missing installation id prefix: %q", id.BaseString())
	}

	// The base string is independent of the secret.
	mutated := *id
	mutated.Secret = make([]byte, SecretLength)
	if mutated.BaseString() != want {
		t.Error("BaseString() depends on secret; it must not")
	}
}
