// Package pack implements the pack container format of §4.4: chunks are
// zlib-compressed, appended to a data region, and the whole object is
// written as three independently AEAD-sealed, length-prefixed blocks.
// Grounded on restic's internal/pack package shape (Builder/headerEntry
// idiom), adapted to the spec's front-loaded header+directory layout.
package pack

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/duskvault/duskvault/internal/crypto"
	"github.com/duskvault/duskvault/internal/ids"
	"github.com/duskvault/duskvault/internal/reposerr"
)

// DefaultCap is the default pack size cap, enforced on compressed bytes
// (§4.4, §9 decision).
const DefaultCap = 64 * 1024 * 1024

// Header carries pack-wide metadata, sealed as the first block of a
// serialized pack.
type Header struct {
	PackID     string    `json:"pack_id"`
	ChunkCount int       `json:"chunk_count"`
	TotalBytes int64     `json:"total_bytes"`
	Created    time.Time `json:"created"`
}

// PackedChunk is one entry in a pack's chunk directory (§3). OffsetInPack
// and StoredLength describe the compressed byte range inside the pack's
// data region; PlaintextLength is the original chunk size.
type PackedChunk struct {
	ChunkID         ids.ChunkID `json:"chunk_id"`
	OffsetInPack    int64       `json:"offset_in_pack"`
	StoredLength    int64       `json:"stored_length"`
	PlaintextLength int64       `json:"plaintext_length"`
}

// Directory is the ordered chunk directory sealed as the second block.
type Directory struct {
	Chunks []PackedChunk `json:"chunks"`
}

func compress(plaintext []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(plaintext); err != nil {
		return nil, errors.Wrap(err, "zlib write")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "zlib close")
	}
	return buf.Bytes(), nil
}

func decompress(compressed []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, errors.Wrap(err, "zlib new reader")
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "zlib read")
	}
	return out, nil
}

// writeSealedBlock seals plaintext under key and writes it to w as a
// [u32 length][sealed bytes] record, returning the number of bytes written.
func writeSealedBlock(w io.Writer, key crypto.Key, plaintext []byte) (int, error) {
	sealed, err := key.Encrypt(plaintext)
	if err != nil {
		return 0, errors.Wrap(err, "seal block")
	}

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(sealed)))

	n1, err := w.Write(lenBuf[:])
	if err != nil {
		return n1, errors.Wrap(err, "write block length")
	}
	n2, err := w.Write(sealed)
	if err != nil {
		return n1 + n2, errors.Wrap(err, "write block")
	}
	return n1 + n2, nil
}

// readSealedBlock reads a [u32 length][sealed bytes] record from buf at
// offset off and unseals it, returning the plaintext and the offset of the
// next byte after the record.
func readSealedBlock(buf []byte, off int, key crypto.Key) ([]byte, int, error) {
	if off+4 > len(buf) {
		return nil, 0, reposerr.ErrCorruptedPack
	}
	length := int(binary.LittleEndian.Uint32(buf[off : off+4]))
	off += 4

	if length < 0 || off+length > len(buf) {
		return nil, 0, reposerr.ErrCorruptedPack
	}

	plaintext, err := key.Decrypt(buf[off : off+length])
	if err != nil {
		return nil, 0, errors.Wrap(reposerr.ErrCorruptedPack, err.Error())
	}

	return plaintext, off + length, nil
}
