// Package ids defines the content-addressed ChunkID and mints the opaque
// PackID strings (§3). SnapshotID is defined in package data.
package ids

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Size is the length in bytes of a ChunkID (Blake3-256 digest).
const Size = 32

// ChunkID is the 32-byte Blake3 digest of a chunk's plaintext bytes. Two
// identical plaintexts always produce the same ChunkID (§3, §8 invariant 2).
type ChunkID [Size]byte

// ParseChunkID decodes a lowercase-hex ChunkID.
func ParseChunkID(s string) (ChunkID, error) {
	var id ChunkID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, errors.Wrap(err, "ParseChunkID")
	}
	if len(b) != Size {
		return id, errors.Errorf("invalid ChunkID length %d", len(b))
	}
	copy(id[:], b)
	return id, nil
}

// String returns the lowercase hex encoding of the ChunkID.
func (id ChunkID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether id is the zero value.
func (id ChunkID) IsZero() bool {
	return id == ChunkID{}
}

func (id ChunkID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.String() + `"`), nil
}

func (id *ChunkID) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return errors.Errorf("invalid ChunkID JSON %q", data)
	}
	parsed, err := ParseChunkID(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// packCounter is a process-wide monotonic counter used, together with a
// random suffix, to mint PackIDs that are unique across the repository's
// lifetime without requiring coordination with other writers.
var packCounter uint64

// NewPackID returns a fresh PackID: a monotonic counter plus a random hex
// suffix (§3).
func NewPackID() (string, error) {
	n := atomic.AddUint64(&packCounter, 1)
	var suffix [8]byte
	if _, err := rand.Read(suffix[:]); err != nil {
		return "", errors.Wrap(err, "NewPackID")
	}
	return fmt.Sprintf("%016x-%s", n, hex.EncodeToString(suffix[:])), nil
}
