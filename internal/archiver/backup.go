package archiver

import (
	"context"
	"os"
	"os/user"

	"github.com/pkg/errors"

	"github.com/duskvault/duskvault/internal/data"
	"github.com/duskvault/duskvault/internal/repository"
)

// Options configures a Backup call.
type Options struct {
	Tags     []string
	Excludes []string
}

// Backup is the high-level commit driver (§4.8, §6): it archives every
// path into its own subtree, wraps them in a single root tree named by
// path, flushes any still-open pack, and commits a snapshot referencing
// the result.
func Backup(ctx context.Context, repo *repository.Repository, paths []string, opts Options) (*data.Snapshot, error) {
	session := repository.NewSession(repo)
	arch := New(session)
	arch.Excludes = opts.Excludes

	root := &data.Tree{}

	for _, p := range paths {
		info, err := os.Lstat(p)
		if err != nil {
			return nil, errors.Wrapf(err, "Backup: stat %q", p)
		}

		node, err := arch.archiveEntry(ctx, p, info)
		if err != nil {
			return nil, errors.Wrapf(err, "Backup: archive %q", p)
		}
		if node != nil {
			root.Nodes = append(root.Nodes, *node)
		}
	}

	if err := session.Flush(ctx); err != nil {
		return nil, errors.Wrap(err, "Backup: flush packs")
	}

	hostname, _ := os.Hostname()
	username := currentUsername()

	snap, err := session.CommitTree(ctx, root, paths, hostname, username, opts.Tags)
	if err != nil {
		return nil, errors.Wrap(err, "Backup: commit")
	}

	return snap, nil
}

func currentUsername() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}
	return u.Username
}
