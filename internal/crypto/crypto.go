// Package crypto implements at-rest encryption for repository objects:
// ChaCha20-Poly1305 AEAD with a fresh random nonce per message (§4.2), and
// Argon2id password-based key derivation (kdf.go).
package crypto

import (
	"crypto/rand"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/duskvault/duskvault/internal/reposerr"
)

// KeySize is the size in bytes of a data key or key-encryption key.
const KeySize = chacha20poly1305.KeySize

// NonceSize is the size in bytes of the random nonce prepended to every
// sealed message.
const NonceSize = chacha20poly1305.NonceSize

// Overhead is the number of bytes a plaintext grows by when sealed: the
// nonce plus the Poly1305 tag.
const Overhead = NonceSize + chacha20poly1305.Overhead

// minCiphertextLen is the smallest input Decrypt will accept before it even
// attempts to verify the tag (§4.2).
const minCiphertextLen = NonceSize + chacha20poly1305.Overhead

// Key is a single 32-byte ChaCha20-Poly1305 key. The same Key type serves as
// both the repository data key (DK) and the password-derived
// key-encryption key (KEK); which one a given instance holds is a matter of
// how it was constructed.
type Key [KeySize]byte

// NewRandomKey returns a new, randomly generated key, suitable for use as a
// repository data key.
func NewRandomKey() (Key, error) {
	var k Key
	if _, err := rand.Read(k[:]); err != nil {
		return k, err
	}
	return k, nil
}

// Encrypt seals plaintext under k, returning nonce || ciphertext || tag. A
// fresh random nonce is generated for every call.
func (k Key) Encrypt(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(k[:])
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize, NonceSize+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a message previously produced by Encrypt. Authentication
// failures and malformed input are both reported as
// reposerr.ErrAuthentication, so callers cannot distinguish a bad MAC from a
// truncated message (§4.2 anti-oracle requirement).
func (k Key) Decrypt(sealed []byte) ([]byte, error) {
	if len(sealed) < minCiphertextLen {
		return nil, reposerr.ErrAuthentication
	}

	aead, err := chacha20poly1305.New(k[:])
	if err != nil {
		return nil, reposerr.ErrAuthentication
	}

	nonce, ciphertext := sealed[:NonceSize], sealed[NonceSize:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, reposerr.ErrAuthentication
	}

	return plaintext, nil
}

// Valid reports whether k is non-zero.
func (k Key) Valid() bool {
	for _, b := range k {
		if b != 0 {
			return true
		}
	}
	return false
}
