// Package local implements the backend.Store interface over a local
// filesystem directory, using the teacher's write-temp-then-rename pattern
// (grounded on internal/backend/local/local.go) to provide the
// atomic-visible Put semantics §4.1 requires.
package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/duskvault/duskvault/internal/backend"
	"github.com/duskvault/duskvault/internal/debug"
)

// Local is a backend.Store rooted at a directory on the local filesystem.
type Local struct {
	root string
}

var _ backend.Store = (*Local)(nil)

// New returns a Local backend rooted at dir. The directory need not exist
// yet; Init creates it.
func New(dir string) *Local {
	return &Local{root: filepath.Clean(dir)}
}

func (l *Local) abs(path string) string {
	return filepath.Join(l.root, filepath.FromSlash(path))
}

// Init creates the repository's root directory and the top-level
// directories named in §6 (data/, index/, snapshots/, keys/, locks/).
func (l *Local) Init(_ context.Context) error {
	for _, d := range []string{"", "data", "index", "snapshots", "keys", "locks"} {
		if err := os.MkdirAll(filepath.Join(l.root, d), 0700); err != nil {
			return errors.Wrap(err, "Init")
		}
	}
	return nil
}

func (l *Local) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(l.abs(path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrap(err, "Exists")
}

func (l *Local) Get(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(l.abs(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, errors.Wrap(err, "Get")
	}
	return data, nil
}

// Put stores data at path by writing to a sibling temporary file, fsyncing
// it, then renaming it into place and fsyncing the containing directory —
// so a concurrent Get never observes a partial object (§4.1).
func (l *Local) Put(_ context.Context, path string, data []byte) error {
	finalname := l.abs(path)
	dir := filepath.Dir(finalname)

	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.Wrap(err, "Put: mkdir")
	}

	f, err := os.CreateTemp(dir, filepath.Base(finalname)+"-tmp-")
	if err != nil {
		return errors.Wrap(err, "Put: create temp")
	}
	tmpname := f.Name()

	cleanup := func() {
		_ = f.Close()
		_ = os.Remove(tmpname)
	}

	if _, err := f.Write(data); err != nil {
		cleanup()
		return errors.Wrap(err, "Put: write")
	}

	if err := f.Sync(); err != nil {
		cleanup()
		return errors.Wrap(err, "Put: fsync")
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmpname)
		return errors.Wrap(err, "Put: close")
	}

	if err := os.Rename(tmpname, finalname); err != nil {
		_ = os.Remove(tmpname)
		return errors.Wrap(err, "Put: rename")
	}

	if err := fsyncDir(dir); err != nil {
		debug.Log("fsync of directory %v failed: %v", dir, err)
	}

	return nil
}

func fsyncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

func (l *Local) Delete(_ context.Context, path string) error {
	err := os.Remove(l.abs(path))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "Delete")
	}
	return nil
}

func (l *Local) List(ctx context.Context, prefix string, fn func(path string, info backend.Info) error) error {
	base := l.abs(prefix)

	// prefix may name a directory (e.g. "snapshots/") or a partial file
	// name; walk from the nearest existing ancestor directory and filter.
	walkRoot := base
	if fi, err := os.Stat(base); err != nil || !fi.IsDir() {
		walkRoot = filepath.Dir(base)
	}

	err := filepath.Walk(walkRoot, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(l.root, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if !strings.HasPrefix(rel, prefix) {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		return fn(rel, backend.Info{Size: info.Size(), Modified: info.ModTime()})
	})

	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

func (l *Local) Stat(_ context.Context, path string) (backend.Info, error) {
	fi, err := os.Stat(l.abs(path))
	if err != nil {
		if os.IsNotExist(err) {
			return backend.Info{}, err
		}
		return backend.Info{}, errors.Wrap(err, "Stat")
	}
	return backend.Info{Size: fi.Size(), Modified: fi.ModTime()}, nil
}

func (l *Local) IsNotExist(err error) bool {
	return os.IsNotExist(err)
}
