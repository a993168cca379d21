// Package data holds the on-disk/on-blob object types of the repository:
// trees, snapshots, chunk references, repository config and keyfiles.
// Grounded on internal/data/node.go and internal/data/tree.go, trimmed to
// the POSIX-only field set §3 calls for (no Windows generic attributes).
package data

import (
	"os"
	"time"

	"github.com/duskvault/duskvault/internal/ids"
)

// NodeType discriminates the kind of a TreeNode.
type NodeType string

const (
	NodeTypeFile    NodeType = "file"
	NodeTypeDir     NodeType = "directory"
	NodeTypeSymlink NodeType = "symlink"
)

// ChunkRef is a reference to one chunk within a file's content list. Offset
// is the chunk's byte offset in its source file: the archiver sets it and
// sorts a file's chunk list by it. Restore never reads it and walks a node's
// Chunks in list order.
type ChunkRef struct {
	ChunkID ids.ChunkID `json:"chunk_id"`
	Offset  uint64      `json:"offset"`
	Length  uint        `json:"length"`
}

// TreeNode is one entry in a Tree: a file, directory or symlink.
type TreeNode struct {
	Name    string      `json:"name"`
	Kind    NodeType    `json:"kind"`
	Mode    os.FileMode `json:"mode"`
	UID     uint32      `json:"uid"`
	GID     uint32      `json:"gid"`
	Size    uint64      `json:"size"`
	ModTime time.Time   `json:"mtime"`

	// SubtreeID names another Tree object by its ChunkID, for directories.
	SubtreeID *ids.ChunkID `json:"subtree_id,omitempty"`

	// Chunks is the ordered content list for files; empty for directories
	// and symlinks.
	Chunks []ChunkRef `json:"chunks,omitempty"`

	// AccessTime, ChangeTime, User, Group and LinkTarget flow through
	// canonical serialization like every other field, so they are part of
	// the tree's ID. The archiver fills ChangeTime (on Linux) and LinkTarget
	// (for symlinks) and leaves AccessTime, User and Group empty; restore
	// uses only LinkTarget.
	AccessTime time.Time `json:"atime,omitempty"`
	ChangeTime time.Time `json:"ctime,omitempty"`
	User       string    `json:"user,omitempty"`
	Group      string    `json:"group,omitempty"`
	LinkTarget string    `json:"link_target,omitempty"`
}

// Tree is an ordered sequence of nodes. Its object identity is the ChunkID
// of its canonical plaintext serialization (§9 decision), independent of
// any later AEAD sealing.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}
