package pack

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/duskvault/duskvault/internal/crypto"
	"github.com/duskvault/duskvault/internal/ids"
	"github.com/duskvault/duskvault/internal/reposerr"
)

// Pack is a parsed, decrypted pack object, ready for random-access chunk
// reads (§4.4).
type Pack struct {
	Header     Header
	Directory  Directory
	dataRegion []byte

	byID map[ids.ChunkID]PackedChunk
}

// Parse decodes a serialized pack (as produced by Builder.Seal), decrypting
// all three blocks under key. Any framing or AEAD failure is reported as
// CorruptedPack (§4.4 failure semantics).
func Parse(raw []byte, key crypto.Key) (*Pack, error) {
	headerBuf, off, err := readSealedBlock(raw, 0, key)
	if err != nil {
		return nil, err
	}

	var header Header
	if err := json.Unmarshal(headerBuf, &header); err != nil {
		return nil, errors.Wrap(reposerr.ErrCorruptedPack, "decode header: "+err.Error())
	}

	dirBuf, off, err := readSealedBlock(raw, off, key)
	if err != nil {
		return nil, err
	}

	var dir Directory
	if err := json.Unmarshal(dirBuf, &dir); err != nil {
		return nil, errors.Wrap(reposerr.ErrCorruptedPack, "decode directory: "+err.Error())
	}

	if off > len(raw) {
		return nil, reposerr.ErrCorruptedPack
	}
	dataRegion, err := key.Decrypt(raw[off:])
	if err != nil {
		return nil, errors.Wrap(reposerr.ErrCorruptedPack, err.Error())
	}

	byID := make(map[ids.ChunkID]PackedChunk, len(dir.Chunks))
	for _, c := range dir.Chunks {
		if c.OffsetInPack < 0 || c.StoredLength < 0 || c.OffsetInPack+c.StoredLength > int64(len(dataRegion)) {
			return nil, reposerr.ErrCorruptedPack
		}
		byID[c.ChunkID] = c
	}

	return &Pack{Header: header, Directory: dir, dataRegion: dataRegion, byID: byID}, nil
}

// ReadChunk returns the decompressed plaintext of chunk id, or
// ChunkNotFound if id is not present in this pack's directory.
func (p *Pack) ReadChunk(id ids.ChunkID) ([]byte, error) {
	entry, ok := p.byID[id]
	if !ok {
		return nil, reposerr.ErrChunkNotFound
	}

	if entry.OffsetInPack+entry.StoredLength > int64(len(p.dataRegion)) {
		return nil, reposerr.ErrCorruptedPack
	}

	compressed := p.dataRegion[entry.OffsetInPack : entry.OffsetInPack+entry.StoredLength]
	plaintext, err := decompress(compressed)
	if err != nil {
		return nil, errors.Wrap(reposerr.ErrCorruptedPack, err.Error())
	}
	return plaintext, nil
}
