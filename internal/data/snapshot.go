package data

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/duskvault/duskvault/internal/ids"
)

// SnapshotID identifies a snapshot object. A UUIDv4 string, per §3.
type SnapshotID string

// NewSnapshotID generates a fresh random snapshot identifier.
func NewSnapshotID() SnapshotID {
	return SnapshotID(uuid.NewString())
}

// Snapshot commits a point-in-time view of one or more filesystem trees.
// Immutable after commit.
type Snapshot struct {
	ID       SnapshotID  `json:"id"`
	Parent   *SnapshotID `json:"parent,omitempty"`
	Tree     ids.ChunkID `json:"tree"`
	Paths    []string    `json:"paths"`
	Hostname string      `json:"hostname,omitempty"`
	Username string      `json:"username,omitempty"`
	Time     time.Time   `json:"time"`
	Tags     []string    `json:"tags,omitempty"`
	Excludes []string    `json:"excludes,omitempty"`
}

// Canonical returns the snapshot's deterministic plaintext serialization,
// sealed and uploaded by the repository under snapshots/<id>.
func (s *Snapshot) Canonical() ([]byte, error) {
	buf, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, "marshal snapshot")
	}
	return buf, nil
}

// ParseSnapshot decodes a snapshot's canonical plaintext bytes.
func ParseSnapshot(buf []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(buf, &s); err != nil {
		return nil, errors.Wrap(err, "unmarshal snapshot")
	}
	return &s, nil
}
