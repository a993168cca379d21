package data

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/duskvault/duskvault/internal/crypto"
)

// RepoVersion is the only supported on-disk format version.
const RepoVersion = 1

// RepoConfig is the repository's unencrypted root object, stored at the
// path "config". It carries no secret material, only KDF parameters and
// chunker tuning, so it is safe to leave in plaintext (§3).
type RepoConfig struct {
	Version   int           `json:"version"`
	RepoID    string        `json:"repo_id"`
	ChunkAvg  int           `json:"chunk_avg_size"`
	KDFParams crypto.Params `json:"kdf_params"`
}

func (c *RepoConfig) Marshal() ([]byte, error) {
	buf, err := json.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "marshal config")
	}
	return buf, nil
}

func ParseRepoConfig(buf []byte) (*RepoConfig, error) {
	var c RepoConfig
	if err := json.Unmarshal(buf, &c); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return &c, nil
}

// KeyFile seals the repository's random data key under a password-derived
// key-encryption key. Stored at keys/<uuid>. A repository may carry several
// keyfiles (one per password ever set).
type KeyFile struct {
	EncryptedDataKey []byte        `json:"encrypted_data_key"`
	KDFParams        crypto.Params `json:"kdf_params"`
}

func (k *KeyFile) Marshal() ([]byte, error) {
	buf, err := json.Marshal(k)
	if err != nil {
		return nil, errors.Wrap(err, "marshal keyfile")
	}
	return buf, nil
}

func ParseKeyFile(buf []byte) (*KeyFile, error) {
	var k KeyFile
	if err := json.Unmarshal(buf, &k); err != nil {
		return nil, errors.Wrap(err, "unmarshal keyfile")
	}
	return &k, nil
}
