package repository

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/duskvault/duskvault/internal/backend"
	"github.com/duskvault/duskvault/internal/data"
	"github.com/duskvault/duskvault/internal/hashing"
	"github.com/duskvault/duskvault/internal/ids"
	"github.com/duskvault/duskvault/internal/index"
	"github.com/duskvault/duskvault/internal/pack"
	"github.com/duskvault/duskvault/internal/reposerr"
)

func treePath(id ids.ChunkID) string { return "data/" + id.String() }

// SaveTree canonicalizes t, seals it under the session key, and uploads it
// under data/<hex(treeid)>. The returned ChunkID is computed over the
// plaintext bytes (§9 decision), so identical trees always dedup to the
// same object regardless of the random nonce used to seal them.
func (r *Repository) SaveTree(ctx context.Context, t *data.Tree) (ids.ChunkID, error) {
	plaintext, err := t.Canonical()
	if err != nil {
		return ids.ChunkID{}, err
	}

	id := hashing.Sum(plaintext)
	path := treePath(id)

	exists, err := r.store.Exists(ctx, path)
	if err != nil {
		return ids.ChunkID{}, errors.Wrap(err, "SaveTree: exists")
	}
	if exists {
		// Identical tree already stored under this ChunkID; nothing to do.
		return id, nil
	}

	sealed, err := r.key.Encrypt(plaintext)
	if err != nil {
		return ids.ChunkID{}, errors.Wrap(err, "SaveTree: seal")
	}

	if err := r.store.Put(ctx, path, sealed); err != nil {
		return ids.ChunkID{}, errors.Wrap(err, "SaveTree: upload")
	}

	return id, nil
}

// LoadTree fetches and decrypts the tree object named by id.
func (r *Repository) LoadTree(ctx context.Context, id ids.ChunkID) (*data.Tree, error) {
	sealed, err := r.store.Get(ctx, treePath(id))
	if err != nil {
		if r.store.IsNotExist(err) {
			return nil, reposerr.ErrChunkNotFound
		}
		return nil, errors.Wrap(err, "LoadTree: fetch")
	}

	plaintext, err := r.key.Decrypt(sealed)
	if err != nil {
		return nil, err
	}

	return data.ParseTree(plaintext)
}

func snapshotPath(id data.SnapshotID) string { return "snapshots/" + string(id) }

// SaveSnapshot seals and uploads s under snapshots/<id>. This is the step
// that makes a backup durable and visible (§4.8 step 5).
func (r *Repository) SaveSnapshot(ctx context.Context, s *data.Snapshot) error {
	plaintext, err := s.Canonical()
	if err != nil {
		return err
	}

	sealed, err := r.key.Encrypt(plaintext)
	if err != nil {
		return errors.Wrap(err, "SaveSnapshot: seal")
	}

	if err := r.store.Put(ctx, snapshotPath(s.ID), sealed); err != nil {
		return errors.Wrap(err, "SaveSnapshot: upload")
	}

	return nil
}

// LoadSnapshot fetches and decrypts the snapshot named by id.
func (r *Repository) LoadSnapshot(ctx context.Context, id data.SnapshotID) (*data.Snapshot, error) {
	sealed, err := r.store.Get(ctx, snapshotPath(id))
	if err != nil {
		if r.store.IsNotExist(err) {
			return nil, reposerr.ErrSnapshotNotFound
		}
		return nil, errors.Wrap(err, "LoadSnapshot: fetch")
	}

	plaintext, err := r.key.Decrypt(sealed)
	if err != nil {
		return nil, err
	}

	return data.ParseSnapshot(plaintext)
}

// ListSnapshots returns every snapshot ID currently visible in the store.
func (r *Repository) ListSnapshots(ctx context.Context) ([]data.SnapshotID, error) {
	var snapshotIDs []data.SnapshotID
	err := r.store.List(ctx, "snapshots/", func(path string, _ backend.Info) error {
		snapshotIDs = append(snapshotIDs, data.SnapshotID(strings.TrimPrefix(path, "snapshots/")))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "ListSnapshots")
	}
	return snapshotIDs, nil
}

func packPath(id string) string { return "data/" + id + ".pack" }

// SavePack uploads a sealed pack's bytes to data/<packid>.pack, then writes
// one index entry per chunk it contains. The order is mandatory (§4.8 step
// 2): pack bytes are visible before any index entry that could resolve to
// them, so a crash mid-way leaves only orphan packs, never orphan indices.
func (r *Repository) SavePack(ctx context.Context, sealed *pack.Sealed, chunks []pack.PackedChunk) error {
	if err := r.store.Put(ctx, packPath(sealed.ID), sealed.Bytes); err != nil {
		return errors.Wrap(err, "SavePack: upload")
	}

	for _, c := range chunks {
		loc := index.Location{
			PackID:       sealed.ID,
			OffsetInPack: c.OffsetInPack,
			StoredLength: c.StoredLength,
		}
		if err := r.index.Put(ctx, c.ChunkID, loc); err != nil {
			return errors.Wrap(err, "SavePack: write index entry")
		}
	}

	return nil
}

// LoadPack fetches and parses the pack named id.
func (r *Repository) LoadPack(ctx context.Context, id string) (*pack.Pack, error) {
	raw, err := r.store.Get(ctx, packPath(id))
	if err != nil {
		if r.store.IsNotExist(err) {
			return nil, reposerr.ErrChunkNotFound
		}
		return nil, errors.Wrap(err, "LoadPack: fetch")
	}

	return pack.Parse(raw, r.key)
}

// HasChunk reports whether id has an index entry (dedup lookup).
func (r *Repository) HasChunk(ctx context.Context, id ids.ChunkID) (bool, error) {
	return r.index.HasChunk(ctx, id)
}

// SaveChunkLocation writes an index entry directly, bypassing SavePack.
// Exposed for callers (and tests) that already know a chunk's location.
func (r *Repository) SaveChunkLocation(ctx context.Context, id ids.ChunkID, loc index.Location) error {
	return r.index.Put(ctx, id, loc)
}

// LoadChunk resolves id via the index, fetches its pack, and returns the
// decompressed plaintext.
func (r *Repository) LoadChunk(ctx context.Context, id ids.ChunkID) ([]byte, error) {
	loc, err := r.index.Locate(ctx, id)
	if err != nil {
		return nil, err
	}

	p, err := r.LoadPack(ctx, loc.PackID)
	if err != nil {
		return nil, err
	}

	return p.ReadChunk(id)
}
