package crypto

import (
	"crypto/rand"

	"golang.org/x/crypto/argon2"

	"github.com/pkg/errors"
)

// SaltSize is the length in bytes of the Argon2id salt stored in kdf_params.
const SaltSize = 32

// Params are the Argon2id parameters used to derive a key-encryption key
// from a password (§3 RepoConfig.kdf_params, §4.2).
type Params struct {
	Algorithm   string `json:"algorithm"`
	Memory      uint32 `json:"memory"` // KiB
	Iterations  uint32 `json:"iterations"`
	Parallelism uint8  `json:"parallelism"`
	Salt        []byte `json:"salt"`
}

// DefaultParams are the Argon2id parameters used for newly initialized
// repositories. They follow the RFC 9106 "moderate" recommendation: roughly
// half a second on contemporary hardware, comfortably above brute-force
// thresholds without making Open annoying interactively.
var DefaultParams = Params{
	Algorithm:   "argon2id",
	Memory:      64 * 1024, // 64 MiB
	Iterations:  3,
	Parallelism: 4,
}

// NewSalt returns fresh random salt bytes for use in Params.Salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.Wrap(err, "NewSalt")
	}
	return salt, nil
}

// DeriveKEK derives a key-encryption key from password and p using
// Argon2id. p.Salt must already be populated.
func DeriveKEK(password string, p Params) (Key, error) {
	var kek Key
	if len(p.Salt) == 0 {
		return kek, errors.New("DeriveKEK: empty salt")
	}

	derived := argon2.IDKey([]byte(password), p.Salt, p.Iterations, p.Memory, p.Parallelism, KeySize)
	copy(kek[:], derived)
	return kek, nil
}
