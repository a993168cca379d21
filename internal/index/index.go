// Package index implements the chunk-ID → physical-location lookup of §4.6:
// a small plaintext JSON blob per chunk, plus an in-memory cache that
// answers has_chunk/locate without a store round-trip.
package index

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/duskvault/duskvault/internal/backend"
	"github.com/duskvault/duskvault/internal/ids"
	"github.com/duskvault/duskvault/internal/reposerr"
)

// prefix is the blob-store directory index entries live under.
const prefix = "index/"

// Location is the content of an index entry: where a chunk's compressed
// bytes live inside its pack.
type Location struct {
	PackID       string `json:"pack_id"`
	OffsetInPack int64  `json:"offset_in_pack"`
	StoredLength int64  `json:"stored_length"`
}

// Path returns the blob-store path of id's index entry.
func Path(id ids.ChunkID) string {
	return prefix + id.String()
}

func marshal(loc Location) ([]byte, error) {
	buf, err := json.Marshal(loc)
	if err != nil {
		return nil, errors.Wrap(err, "marshal index entry")
	}
	return buf, nil
}

func unmarshal(buf []byte) (Location, error) {
	var loc Location
	if err := json.Unmarshal(buf, &loc); err != nil {
		return Location{}, errors.Wrap(err, "unmarshal index entry")
	}
	return loc, nil
}

// Manager is an in-memory, store-backed chunk index. Persisted index
// entries are authoritative; the cache is advisory and exists to avoid a
// store round-trip per dedup lookup during a session (§4.6).
//
// The cache is read-mostly with occasional bulk insertions, so a
// lock-striped concurrent map (rather than a single RWMutex) is used to
// keep dedup lookups from serializing on one another during the bounded
// fan-out of §5.
type Manager struct {
	store backend.Store
	cache *xsync.MapOf[ids.ChunkID, Location]
}

// NewManager returns an index Manager backed by store.
func NewManager(store backend.Store) *Manager {
	return &Manager{
		store: store,
		cache: xsync.NewMapOf[ids.ChunkID, Location](),
	}
}

// Remember inserts loc into the in-memory cache for id without touching the
// store. Used immediately after a successful Put so that a same-session
// HasChunk always observes the write (read-your-writes, §4.6).
func (m *Manager) Remember(id ids.ChunkID, loc Location) {
	m.cache.Store(id, loc)
}

// HasChunk reports whether id has an index entry, consulting the cache
// first and falling back to the store.
func (m *Manager) HasChunk(ctx context.Context, id ids.ChunkID) (bool, error) {
	if _, ok := m.cache.Load(id); ok {
		return true, nil
	}

	exists, err := m.store.Exists(ctx, Path(id))
	if err != nil {
		return false, errors.Wrap(err, "HasChunk")
	}
	return exists, nil
}

// Locate returns the physical location of id, consulting the cache first.
func (m *Manager) Locate(ctx context.Context, id ids.ChunkID) (Location, error) {
	if loc, ok := m.cache.Load(id); ok {
		return loc, nil
	}

	buf, err := m.store.Get(ctx, Path(id))
	if err != nil {
		if m.store.IsNotExist(err) {
			return Location{}, reposerr.ErrChunkNotFound
		}
		return Location{}, errors.Wrap(err, "Locate")
	}

	loc, err := unmarshal(buf)
	if err != nil {
		return Location{}, err
	}
	m.cache.Store(id, loc)
	return loc, nil
}

// Put writes id's index entry to the store and remembers it in the cache.
func (m *Manager) Put(ctx context.Context, id ids.ChunkID, loc Location) error {
	buf, err := marshal(loc)
	if err != nil {
		return err
	}
	if err := m.store.Put(ctx, Path(id), buf); err != nil {
		return errors.Wrap(err, "Put index entry")
	}
	m.Remember(id, loc)
	return nil
}
