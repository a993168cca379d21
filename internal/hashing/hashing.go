// Package hashing computes the Blake3-256 content hash that identifies a
// chunk (§4.2). Hashing is independent of encryption and compression:
// dedup is always keyed on plaintext identity.
package hashing

import (
	"io"

	"github.com/zeebo/blake3"

	"github.com/duskvault/duskvault/internal/ids"
)

// Sum returns the ChunkID for the given plaintext bytes.
func Sum(plaintext []byte) ids.ChunkID {
	digest := blake3.Sum256(plaintext)
	return ids.ChunkID(digest)
}

// NewReader wraps rd so that the bytes read through it are also fed into a
// running Blake3 hash, recoverable by calling ChunkID on the returned Hasher
// once rd is fully consumed. Used where a chunk's bytes are streamed rather
// than buffered whole.
func NewReader(rd io.Reader) (io.Reader, *Hasher) {
	h := &Hasher{h: blake3.New()}
	return io.TeeReader(rd, h.h), h
}

// Hasher accumulates a streaming Blake3 hash.
type Hasher struct {
	h *blake3.Hasher
}

// ChunkID returns the ChunkID of all bytes written so far.
func (h *Hasher) ChunkID() ids.ChunkID {
	var id ids.ChunkID
	sum := h.h.Sum(nil)
	copy(id[:], sum)
	return id
}
