package data

import (
	"encoding/json"
	"sort"

	"github.com/pkg/errors"

	"github.com/duskvault/duskvault/internal/hashing"
	"github.com/duskvault/duskvault/internal/ids"
)

// Sort orders nodes by name, matching restic's tree.Sort so that identical
// directory contents always canonicalize to the same bytes regardless of
// traversal order.
func (t *Tree) Sort() {
	sort.Slice(t.Nodes, func(i, j int) bool {
		return t.Nodes[i].Name < t.Nodes[j].Name
	})
}

// Canonical returns the tree's deterministic plaintext serialization.
func (t *Tree) Canonical() ([]byte, error) {
	t.Sort()
	buf, err := json.Marshal(t)
	if err != nil {
		return nil, errors.Wrap(err, "marshal tree")
	}
	return buf, nil
}

// ID returns the ChunkID of the tree's canonical plaintext bytes: the
// tree's object identity, independent of any later AEAD sealing.
func (t *Tree) ID() (ids.ChunkID, error) {
	buf, err := t.Canonical()
	if err != nil {
		return ids.ChunkID{}, err
	}
	return hashing.Sum(buf), nil
}

// ParseTree decodes a tree's canonical plaintext bytes.
func ParseTree(buf []byte) (*Tree, error) {
	var t Tree
	if err := json.Unmarshal(buf, &t); err != nil {
		return nil, errors.Wrap(err, "unmarshal tree")
	}
	return &t, nil
}
