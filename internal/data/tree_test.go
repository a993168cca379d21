package data

import (
	"os"
	"testing"
)

func TestTreeCanonicalIsOrderIndependent(t *testing.T) {
	a := &Tree{Nodes: []TreeNode{
		{Name: "b.txt", Kind: NodeTypeFile, Mode: 0644},
		{Name: "a.txt", Kind: NodeTypeFile, Mode: 0644},
	}}
	b := &Tree{Nodes: []TreeNode{
		{Name: "a.txt", Kind: NodeTypeFile, Mode: 0644},
		{Name: "b.txt", Kind: NodeTypeFile, Mode: 0644},
	}}

	idA, err := a.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	idB, err := b.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}

	if idA != idB {
		t.Fatal("trees with the same nodes in different order must have the same ID")
	}
}

func TestTreeIDChangesWithContent(t *testing.T) {
	a := &Tree{Nodes: []TreeNode{{Name: "a.txt", Kind: NodeTypeFile, Mode: 0644, Size: 1}}}
	b := &Tree{Nodes: []TreeNode{{Name: "a.txt", Kind: NodeTypeFile, Mode: 0644, Size: 2}}}

	idA, _ := a.ID()
	idB, _ := b.ID()
	if idA == idB {
		t.Fatal("trees differing in node content must have different IDs")
	}
}

func TestParseTreeRoundTrip(t *testing.T) {
	original := &Tree{Nodes: []TreeNode{
		{Name: "file.txt", Kind: NodeTypeFile, Mode: os.FileMode(0644), Size: 42},
	}}

	buf, err := original.Canonical()
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}

	parsed, err := ParseTree(buf)
	if err != nil {
		t.Fatalf("ParseTree: %v", err)
	}

	if len(parsed.Nodes) != 1 || parsed.Nodes[0].Name != "file.txt" {
		t.Fatalf("unexpected parsed tree: %+v", parsed)
	}
}

func TestTreeIDStableAcrossReserialization(t *testing.T) {
	original := &Tree{Nodes: []TreeNode{
		{Name: "a", Kind: NodeTypeFile, Mode: 0644},
		{Name: "b", Kind: NodeTypeDir, Mode: 0755},
	}}

	idBefore, err := original.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}

	buf, err := original.Canonical()
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	reparsed, err := ParseTree(buf)
	if err != nil {
		t.Fatalf("ParseTree: %v", err)
	}

	idAfter, err := reparsed.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}

	if idBefore != idAfter {
		t.Fatal("tree ID must be stable across a marshal/unmarshal round trip")
	}
}
