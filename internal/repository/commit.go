package repository

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/duskvault/duskvault/internal/data"
	"github.com/duskvault/duskvault/internal/debug"
	"github.com/duskvault/duskvault/internal/hashing"
	"github.com/duskvault/duskvault/internal/pack"
)

// Session drives one backup commit (§4.8). Dedup lookups (HasChunk) may be
// issued concurrently up to the caller's chosen fan-out (§5), but the pack
// manager's open builder is exclusively owned by one task at a time; packMu
// serializes access to it the way §5 requires ("others must hand it chunks
// through a channel or a mutex").
type Session struct {
	repo   *Repository
	packMu sync.Mutex
}

// NewSession starts a commit session against repo.
func NewSession(repo *Repository) *Session {
	return &Session{repo: repo}
}

// Repository returns the Repository this session commits against, for
// callers (e.g. the archiver) that need to save subtree objects directly.
func (s *Session) Repository() *Repository { return s.repo }

// AddChunk looks up the ChunkID of plaintext in the index; if absent, it
// feeds plaintext to the pack manager and persists any pack the manager
// seals as a result (§4.8 step 2). It always returns a ChunkRef suitable
// for a TreeNode's content list.
func (s *Session) AddChunk(ctx context.Context, plaintext []byte) (data.ChunkRef, error) {
	chunkID := hashing.Sum(plaintext)

	has, err := s.repo.HasChunk(ctx, chunkID)
	if err != nil {
		return data.ChunkRef{}, errors.Wrap(err, "AddChunk: index lookup")
	}
	if has {
		return data.ChunkRef{ChunkID: chunkID, Length: uint(len(plaintext))}, nil
	}

	s.packMu.Lock()
	sealed, err := s.repo.packs.Add(chunkID, plaintext, s.repo.key)
	s.packMu.Unlock()
	if err != nil {
		return data.ChunkRef{}, errors.Wrap(err, "AddChunk: pack manager")
	}
	if sealed != nil {
		if err := s.persistSealedPack(ctx, sealed); err != nil {
			return data.ChunkRef{}, err
		}
	}

	return data.ChunkRef{ChunkID: chunkID, Length: uint(len(plaintext))}, nil
}

// persistSealedPack uploads a just-sealed pack before writing index entries
// for each of its chunks (§4.8 step 2, §5 ordering guarantee).
func (s *Session) persistSealedPack(ctx context.Context, sealed *pack.Sealed) error {
	if err := s.repo.SavePack(ctx, sealed, sealed.Chunks); err != nil {
		return err
	}

	debug.Log("persisted pack %s with %d chunks", sealed.ID, len(sealed.Chunks))
	return nil
}

// Flush seals and persists any still-open pack (§4.8 step 3). Call once
// after every source file in the snapshot has been chunked.
func (s *Session) Flush(ctx context.Context) error {
	s.packMu.Lock()
	sealed, err := s.repo.packs.Finish(s.repo.key)
	s.packMu.Unlock()
	if err != nil {
		return errors.Wrap(err, "Flush: seal final pack")
	}
	if sealed == nil {
		return nil
	}
	return s.persistSealedPack(ctx, sealed)
}

// CommitTree canonicalizes and uploads the root tree, then builds and
// uploads a Snapshot referencing it, assigning a fresh SnapshotID (§4.8
// steps 4-5). The returned Snapshot is durable and visible once this
// returns without error.
func (s *Session) CommitTree(ctx context.Context, root *data.Tree, paths []string, hostname, username string, tags []string) (*data.Snapshot, error) {
	treeID, err := s.repo.SaveTree(ctx, root)
	if err != nil {
		return nil, errors.Wrap(err, "CommitTree: save root tree")
	}

	snap := &data.Snapshot{
		ID:       data.NewSnapshotID(),
		Tree:     treeID,
		Paths:    paths,
		Hostname: hostname,
		Username: username,
		Tags:     tags,
		Time:     time.Now(),
	}

	if err := s.repo.SaveSnapshot(ctx, snap); err != nil {
		return nil, errors.Wrap(err, "CommitTree: save snapshot")
	}

	return snap, nil
}
