package pack

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/duskvault/duskvault/internal/crypto"
	"github.com/duskvault/duskvault/internal/ids"
)

// Builder aggregates chunks into a single bounded-size pack (§4.4). It is
// not safe for concurrent use; it is reached only through a Manager, whose
// caller serializes access.
type Builder struct {
	id   string
	cap  int64
	seen map[ids.ChunkID]struct{}

	dataRegion []byte
	chunks     []PackedChunk
	full       bool
}

// NewBuilder starts an empty pack builder with the given PackID and
// compressed-size cap.
func NewBuilder(id string, cap int64) *Builder {
	if cap <= 0 {
		cap = DefaultCap
	}
	return &Builder{
		id:   id,
		cap:  cap,
		seen: make(map[ids.ChunkID]struct{}),
	}
}

// ID returns the builder's pack ID.
func (b *Builder) ID() string { return b.id }

// Len returns the number of distinct chunks currently in the builder.
func (b *Builder) Len() int { return len(b.chunks) }

// Add compresses plaintext and appends it to the pack's data region,
// recording a PackedChunk directory entry. Re-adding a ChunkID already
// present in this pack is a silent no-op (§4.4 step 1).
func (b *Builder) Add(id ids.ChunkID, plaintext []byte) error {
	if _, ok := b.seen[id]; ok {
		return nil
	}

	compressed, err := compress(plaintext)
	if err != nil {
		return errors.Wrap(err, "pack add")
	}

	entry := PackedChunk{
		ChunkID:         id,
		OffsetInPack:    int64(len(b.dataRegion)),
		StoredLength:    int64(len(compressed)),
		PlaintextLength: int64(len(plaintext)),
	}

	b.dataRegion = append(b.dataRegion, compressed...)
	b.chunks = append(b.chunks, entry)
	b.seen[id] = struct{}{}

	if int64(len(b.dataRegion)) >= b.cap {
		b.full = true
	}

	return nil
}

// IsFull reports whether the builder has reached its compressed-size cap.
func (b *Builder) IsFull() bool { return b.full }

// Sealed is an immutable, serialized pack ready for upload. Chunks mirrors
// the pack's own directory so callers can write index entries without
// re-parsing the sealed bytes.
type Sealed struct {
	ID     string
	Bytes  []byte
	Chunks []PackedChunk
}

// Seal consumes the builder and produces the final serialized pack bytes,
// encrypted under key, following the layout of §4.4:
//
//	[u32 header_len][sealed(header)]
//	[u32 dir_len   ][sealed(directory)]
//	                [sealed(data_region)]
func (b *Builder) Seal(key crypto.Key) (*Sealed, error) {
	header := Header{
		PackID:     b.id,
		ChunkCount: len(b.chunks),
		TotalBytes: int64(len(b.dataRegion)),
		Created:    time.Now().UTC(),
	}
	headerBuf, err := json.Marshal(header)
	if err != nil {
		return nil, errors.Wrap(err, "marshal pack header")
	}

	dir := Directory{Chunks: b.chunks}
	dirBuf, err := json.Marshal(dir)
	if err != nil {
		return nil, errors.Wrap(err, "marshal pack directory")
	}

	var out []byte
	buf := &byteAppender{buf: out}

	if _, err := writeSealedBlock(buf, key, headerBuf); err != nil {
		return nil, err
	}
	if _, err := writeSealedBlock(buf, key, dirBuf); err != nil {
		return nil, err
	}

	sealedData, err := key.Encrypt(b.dataRegion)
	if err != nil {
		return nil, errors.Wrap(err, "seal data region")
	}
	buf.buf = append(buf.buf, sealedData...)

	return &Sealed{ID: b.id, Bytes: buf.buf, Chunks: b.chunks}, nil
}

// byteAppender is an io.Writer over a growable byte slice, used so Seal can
// reuse writeSealedBlock without allocating a bytes.Buffer per call.
type byteAppender struct {
	buf []byte
}

func (a *byteAppender) Write(p []byte) (int, error) {
	a.buf = append(a.buf, p...)
	return len(p), nil
}
