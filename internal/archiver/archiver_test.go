package archiver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/duskvault/duskvault/internal/backend/mem"
	"github.com/duskvault/duskvault/internal/repository"
)

func newTestRepo(t *testing.T) *repository.Repository {
	t.Helper()
	store := mem.New()
	repo, err := repository.Init(context.Background(), store, "pw")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return repo
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

func TestBackupAndRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	srcDir := t.TempDir()
	writeFile(t, filepath.Join(srcDir, "a.txt"), "hello world")
	if err := os.Mkdir(filepath.Join(srcDir, "sub"), 0755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	writeFile(t, filepath.Join(srcDir, "sub", "b.txt"), "nested content")

	snap, err := Backup(ctx, repo, []string{srcDir}, Options{})
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}

	restoreDir := t.TempDir()
	if err := repo.Restore(ctx, snap.ID, restoreDir); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	base := filepath.Base(srcDir)
	got, err := os.ReadFile(filepath.Join(restoreDir, base, "a.txt"))
	if err != nil {
		t.Fatalf("ReadFile a.txt: %v", err)
	}
	if string(got) != "hello world" {
		t.Fatalf("a.txt: got %q", got)
	}

	got, err = os.ReadFile(filepath.Join(restoreDir, base, "sub", "b.txt"))
	if err != nil {
		t.Fatalf("ReadFile sub/b.txt: %v", err)
	}
	if string(got) != "nested content" {
		t.Fatalf("sub/b.txt: got %q", got)
	}
}

func TestBackupDedupsIdenticalFileContent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	srcDir := t.TempDir()
	writeFile(t, filepath.Join(srcDir, "x.txt"), "duplicate payload")
	writeFile(t, filepath.Join(srcDir, "y.txt"), "duplicate payload")

	session := repository.NewSession(repo)
	arch := New(session)

	tree, err := arch.ArchiveTree(ctx, srcDir)
	if err != nil {
		t.Fatalf("ArchiveTree: %v", err)
	}
	if err := session.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if len(tree.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(tree.Nodes))
	}

	idA := tree.Nodes[0].Chunks[0].ChunkID
	idB := tree.Nodes[1].Chunks[0].ChunkID
	if idA != idB {
		t.Fatal("identical file content must produce identical ChunkIDs across files")
	}
}

func TestArchiveTreeStableAcrossRuns(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	srcDir := t.TempDir()
	writeFile(t, filepath.Join(srcDir, "b.txt"), "b")
	writeFile(t, filepath.Join(srcDir, "a.txt"), "a")

	session := repository.NewSession(repo)
	arch := New(session)

	tree1, err := arch.ArchiveTree(ctx, srcDir)
	if err != nil {
		t.Fatalf("ArchiveTree: %v", err)
	}
	tree2, err := arch.ArchiveTree(ctx, srcDir)
	if err != nil {
		t.Fatalf("ArchiveTree (again): %v", err)
	}

	id1, err := tree1.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	id2, err := tree2.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	if id1 != id2 {
		t.Fatal("repeated archiving of unchanged input must produce the same tree ID")
	}
}

func TestArchiveTreeExcludesMatchingNames(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	srcDir := t.TempDir()
	writeFile(t, filepath.Join(srcDir, "keep.txt"), "keep")
	writeFile(t, filepath.Join(srcDir, "skip.tmp"), "skip")

	session := repository.NewSession(repo)
	arch := New(session)
	arch.Excludes = []string{"*.tmp"}

	tree, err := arch.ArchiveTree(ctx, srcDir)
	if err != nil {
		t.Fatalf("ArchiveTree: %v", err)
	}

	if len(tree.Nodes) != 1 || tree.Nodes[0].Name != "keep.txt" {
		t.Fatalf("expected only keep.txt, got %+v", tree.Nodes)
	}
}
