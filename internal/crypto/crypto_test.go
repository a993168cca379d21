package crypto

import (
	"bytes"
	"testing"

	"github.com/duskvault/duskvault/internal/reposerr"
	"github.com/pkg/errors"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key, err := NewRandomKey()
	if err != nil {
		t.Fatalf("NewRandomKey: %v", err)
	}

	plaintext := []byte("the repository data key never touches disk unsealed")
	sealed, err := key.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	got, err := key.Decrypt(sealed)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip mismatch: got %q, want %q", got, plaintext)
	}
}

func TestEncryptNoncesDiffer(t *testing.T) {
	key, _ := NewRandomKey()
	plaintext := []byte("same message")

	a, err := key.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	b, err := key.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatal("two seals of the same plaintext must differ (fresh nonce each call)")
	}
}

func TestDecryptFlippedBitFails(t *testing.T) {
	key, _ := NewRandomKey()
	sealed, _ := key.Encrypt([]byte("tamper with me"))
	sealed[len(sealed)-1] ^= 0xFF

	_, err := key.Decrypt(sealed)
	if errors.Cause(err) != reposerr.ErrAuthentication {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
}

func TestDecryptTruncatedFails(t *testing.T) {
	key, _ := NewRandomKey()

	_, err := key.Decrypt([]byte("short"))
	if errors.Cause(err) != reposerr.ErrAuthentication {
		t.Fatalf("truncated input must also report ErrAuthentication, not a distinct error kind, got %v", err)
	}
}

func TestValid(t *testing.T) {
	var zero Key
	if zero.Valid() {
		t.Fatal("zero-value key should not be Valid")
	}

	key, _ := NewRandomKey()
	if !key.Valid() {
		t.Fatal("random key should be Valid")
	}
}
