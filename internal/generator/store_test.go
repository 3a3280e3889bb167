package generator

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-blog/pkg/interfaces"
)

func TestFSStoreWriteReadRemove(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := NewFSStore(root)

	if err := store.Write(ctx, interfaces.Artifact{Path: "api/posts/a.json", Content: strings.NewReader(`{"a":1}`)}); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := store.Read(ctx, "api/posts/a.json")
	if err != nil || string(data) != `{"a":1}` {
		t.Fatalf("read: %q %v", data, err)
	}

	if err := store.Remove(ctx, "api/posts"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := store.Read(ctx, "api/posts/a.json"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected file removed, got %v", err)
	}
	if err := store.Remove(ctx, "missing"); err != nil {
		t.Fatalf("removing a missing path should succeed: %v", err)
	}
}

func TestFSStoreStaysInsideRoot(t *testing.T) {
	ctx := context.Background()
	parent := t.TempDir()
	root := filepath.Join(parent, "out")
	store := NewFSStore(root)

	if err := store.Write(ctx, interfaces.Artifact{Path: "../escape.txt", Content: strings.NewReader("x")}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(parent, "escape.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("write escaped the root: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "escape.txt")); err != nil {
		t.Fatalf("expected file inside root: %v", err)
	}
	if err := store.Remove(ctx, "/"); err == nil {
		t.Fatal("expected removing the root to fail")
	}
}
