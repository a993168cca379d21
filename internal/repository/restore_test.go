package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/duskvault/duskvault/internal/backend/mem"
	"github.com/duskvault/duskvault/internal/data"
)

func TestRestoreReconstructsFileAndDirectory(t *testing.T) {
	ctx := context.Background()
	store := mem.New()
	repo, err := Init(ctx, store, "pw")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	session := NewSession(repo)
	ref, err := session.AddChunk(ctx, []byte("hello from the subdirectory"))
	if err != nil {
		t.Fatalf("AddChunk: %v", err)
	}
	if err := session.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	subtree := &data.Tree{Nodes: []data.TreeNode{
		{Name: "nested.txt", Kind: data.NodeTypeFile, Mode: 0644, Chunks: []data.ChunkRef{ref}},
	}}
	subtreeID, err := repo.SaveTree(ctx, subtree)
	if err != nil {
		t.Fatalf("SaveTree (subtree): %v", err)
	}

	root := &data.Tree{Nodes: []data.TreeNode{
		{Name: "subdir", Kind: data.NodeTypeDir, Mode: 0755, SubtreeID: &subtreeID},
	}}

	snap, err := session.CommitTree(ctx, root, []string{"/src"}, "host", "user", nil)
	if err != nil {
		t.Fatalf("CommitTree: %v", err)
	}

	targetDir := t.TempDir()
	if err := repo.Restore(ctx, snap.ID, targetDir); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	restoredPath := filepath.Join(targetDir, "subdir", "nested.txt")
	got, err := os.ReadFile(restoredPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "hello from the subdirectory" {
		t.Fatalf("got %q, want %q", got, "hello from the subdirectory")
	}
}

func TestRestoreSymlink(t *testing.T) {
	ctx := context.Background()
	store := mem.New()
	repo, err := Init(ctx, store, "pw")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	session := NewSession(repo)

	root := &data.Tree{Nodes: []data.TreeNode{
		{Name: "link", Kind: data.NodeTypeSymlink, LinkTarget: "/etc/hosts"},
	}}

	snap, err := session.CommitTree(ctx, root, []string{"/src"}, "host", "user", nil)
	if err != nil {
		t.Fatalf("CommitTree: %v", err)
	}

	targetDir := t.TempDir()
	if err := repo.Restore(ctx, snap.ID, targetDir); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	link := filepath.Join(targetDir, "link")
	got, err := os.Readlink(link)
	if err != nil {
		t.Fatalf("Readlink: %v", err)
	}
	if got != "/etc/hosts" {
		t.Fatalf("got %q, want %q", got, "/etc/hosts")
	}
}
