package pack

import (
	"github.com/pkg/errors"

	"github.com/duskvault/duskvault/internal/crypto"
	"github.com/duskvault/duskvault/internal/ids"
)

// Manager coordinates a stream of Add calls onto a single open Builder at a
// time (§4.5). It is not safe for concurrent use: the backup session's
// single-writer discipline owns it exclusively.
type Manager struct {
	cap  int64
	open *Builder
}

// NewManager returns a Manager that seals builders once they reach cap
// compressed bytes.
func NewManager(cap int64) *Manager {
	return &Manager{cap: cap}
}

// Add appends plaintext for chunkID to the currently open builder, sealing
// and returning the previous builder first if it was full or absent.
func (m *Manager) Add(chunkID ids.ChunkID, plaintext []byte, key crypto.Key) (*Sealed, error) {
	var sealed *Sealed

	if m.open == nil || m.open.IsFull() {
		var err error
		sealed, err = m.rotate(key)
		if err != nil {
			return nil, err
		}
	}

	if err := m.open.Add(chunkID, plaintext); err != nil {
		return nil, errors.Wrap(err, "pack manager add")
	}

	return sealed, nil
}

// rotate seals the currently open builder (if any) and opens a fresh one,
// returning the sealed pack for the caller to persist.
func (m *Manager) rotate(key crypto.Key) (*Sealed, error) {
	var sealed *Sealed
	if m.open != nil {
		s, err := m.open.Seal(key)
		if err != nil {
			return nil, errors.Wrap(err, "seal full pack")
		}
		sealed = s
	}

	id, err := ids.NewPackID()
	if err != nil {
		return nil, errors.Wrap(err, "new pack id")
	}
	m.open = NewBuilder(id, m.cap)

	return sealed, nil
}

// Finish seals and returns any still-open builder, or nil if none is open
// or it is empty.
func (m *Manager) Finish(key crypto.Key) (*Sealed, error) {
	if m.open == nil || m.open.Len() == 0 {
		return nil, nil
	}
	sealed, err := m.open.Seal(key)
	if err != nil {
		return nil, errors.Wrap(err, "seal final pack")
	}
	m.open = nil
	return sealed, nil
}
