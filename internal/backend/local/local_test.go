package local

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/duskvault/duskvault/internal/backend"
)

func newTestLocal(t *testing.T) *Local {
	t.Helper()
	dir := t.TempDir()
	l := New(dir)
	if err := l.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return l
}

func TestInitCreatesLayout(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)
	if err := l.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	for _, d := range []string{"data", "index", "snapshots", "keys", "locks"} {
		if fi, err := os.Stat(filepath.Join(dir, d)); err != nil || !fi.IsDir() {
			t.Fatalf("expected directory %s to exist after Init", d)
		}
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	l := newTestLocal(t)

	data := []byte("some bytes")
	if err := l.Put(ctx, "data/abc", data); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := l.Get(ctx, "data/abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("got %q, want %q", got, data)
	}
}

func TestPutLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	l := newTestLocal(t)

	if err := l.Put(ctx, "data/abc", []byte("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(l.root, "data"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "abc" {
		t.Fatalf("expected exactly one file named abc, got %v", entries)
	}
}

func TestGetMissingIsNotExist(t *testing.T) {
	ctx := context.Background()
	l := newTestLocal(t)

	_, err := l.Get(ctx, "data/missing")
	if err == nil || !l.IsNotExist(err) {
		t.Fatalf("expected IsNotExist error, got %v", err)
	}
}

func TestDeleteMissingIsNoop(t *testing.T) {
	ctx := context.Background()
	l := newTestLocal(t)

	if err := l.Delete(ctx, "data/never-existed"); err != nil {
		t.Fatalf("Delete of missing object should be a no-op success, got %v", err)
	}
}

func TestListReturnsAllMatchingPrefix(t *testing.T) {
	ctx := context.Background()
	l := newTestLocal(t)

	for _, p := range []string{"snapshots/a", "snapshots/b", "data/c"} {
		if err := l.Put(ctx, p, []byte(p)); err != nil {
			t.Fatalf("Put(%s): %v", p, err)
		}
	}

	var seen []string
	err := l.List(ctx, "snapshots/", func(path string, _ backend.Info) error {
		seen = append(seen, path)
		return nil
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 matches under snapshots/, got %d: %v", len(seen), seen)
	}
}

func TestStatReportsSize(t *testing.T) {
	ctx := context.Background()
	l := newTestLocal(t)
	_ = l.Put(ctx, "data/x", []byte("hello"))

	info, err := l.Stat(ctx, "data/x")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size != 5 {
		t.Fatalf("expected size 5, got %d", info.Size)
	}
}
