// Package archiver walks a filesystem tree and turns it into the Tree
// objects and chunk/index/pack writes of a backup commit (§4.8 step 1).
// Grounded on the teacher's Archiver struct (internal/archiver/archiver.go):
// a warn callback for chunk-level errors, an exclude filter, and a bounded
// concurrency token for fan-out, adapted to this module's Session/Tree
// types instead of restic.Repository/restic.Node.
package archiver

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/duskvault/duskvault/internal/chunker"
	"github.com/duskvault/duskvault/internal/data"
	"github.com/duskvault/duskvault/internal/debug"
	"github.com/duskvault/duskvault/internal/repository"
)

// DefaultFanOut is the default bounded concurrency for dedup lookups and
// pack/index uploads within one backup session (§5).
const DefaultFanOut = 8

// WarnFunc is called for a chunk-level error (§7: logged, file skipped,
// commit continues).
type WarnFunc func(path string, err error)

// Archiver walks one or more filesystem roots into Tree objects, feeding
// chunk bytes to a commit Session as it goes.
type Archiver struct {
	session *repository.Session

	Warn     WarnFunc
	Excludes []string

	fanOut    int64
	chunkSize int
}

// New returns an Archiver that commits through session.
func New(session *repository.Session) *Archiver {
	return &Archiver{
		session:   session,
		Warn:      func(path string, err error) { debug.Log("archiver: %s: %v", path, err) },
		fanOut:    DefaultFanOut,
		chunkSize: chunker.DefaultAverageSize,
	}
}

func (a *Archiver) excluded(name string) bool {
	for _, pattern := range a.Excludes {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// ArchiveTree walks root and returns its Tree representation. Traversal is
// a stable pre-order: directory entries are visited in sorted name order
// at every level, so repeated runs over unchanged input produce the
// byte-identical canonical tree (§4.8 step 1, §9).
func (a *Archiver) ArchiveTree(ctx context.Context, root string) (*data.Tree, error) {
	return a.archiveDir(ctx, root)
}

func (a *Archiver) archiveDir(ctx context.Context, dir string) (*data.Tree, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	tree := &data.Tree{}

	for _, entry := range entries {
		name := entry.Name()
		if a.excluded(name) {
			continue
		}

		path := filepath.Join(dir, name)
		info, err := entry.Info()
		if err != nil {
			a.Warn(path, err)
			continue
		}

		node, err := a.archiveEntry(ctx, path, info)
		if err != nil {
			a.Warn(path, err)
			continue
		}
		if node == nil {
			continue
		}

		tree.Nodes = append(tree.Nodes, *node)
	}

	return tree, nil
}

func (a *Archiver) archiveEntry(ctx context.Context, path string, info os.FileInfo) (*data.TreeNode, error) {
	base := baseNode(path, info)

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		target, err := os.Readlink(path)
		if err != nil {
			return nil, err
		}
		base.Kind = data.NodeTypeSymlink
		base.LinkTarget = target
		return &base, nil

	case info.IsDir():
		subtree, err := a.archiveDir(ctx, path)
		if err != nil {
			return nil, err
		}
		subtreeID, err := a.session.Repository().SaveTree(ctx, subtree)
		if err != nil {
			return nil, err
		}
		base.Kind = data.NodeTypeDir
		base.SubtreeID = &subtreeID
		return &base, nil

	case info.Mode().IsRegular():
		chunks, err := a.archiveFile(ctx, path)
		if err != nil {
			return nil, err
		}
		base.Kind = data.NodeTypeFile
		base.Chunks = chunks
		return &base, nil

	default:
		// Devices, fifos, sockets: out of scope for this module (POSIX
		// regular files, directories and symlinks only).
		return nil, nil
	}
}

func baseNode(path string, info os.FileInfo) data.TreeNode {
	node := data.TreeNode{
		Name:    filepath.Base(path),
		Mode:    info.Mode(),
		Size:    uint64(info.Size()),
		ModTime: info.ModTime(),
	}
	if stat, ok := extractUnixStat(info); ok {
		node.UID = stat.uid
		node.GID = stat.gid
		node.ChangeTime = stat.ctime
	}
	return node
}

// archiveFile chunks path's content and feeds each chunk through the
// session, bounding concurrent dedup lookups to Archiver.fanOut (§5).
func (a *Archiver) archiveFile(ctx context.Context, path string) ([]data.ChunkRef, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := chunker.New(f, a.chunkSize)
	if err != nil {
		return nil, err
	}

	sem := semaphore.NewWeighted(a.fanOut)
	group, gctx := errgroup.WithContext(ctx)

	refs := make([]data.ChunkRef, 0)
	var refsMu sync.Mutex

	for {
		chunk, err := c.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}

		chunk := chunk
		group.Go(func() error {
			defer sem.Release(1)

			ref, err := a.session.AddChunk(gctx, chunk.Data)
			if err != nil {
				return err
			}
			ref.Offset = chunk.Offset

			refsMu.Lock()
			refs = append(refs, ref)
			refsMu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].Offset < refs[j].Offset })

	return refs, nil
}
