package workspace_fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestClean_RemovesTree(t *testing.T) {
	ws := t.TempDir()
	sub := filepath.Join(ws, "dist")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "pkg.tar.gz"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := New().Clean(context.Background(), ws); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(ws); !os.IsNotExist(err) {
		t.Error("workspace still exists")
	}
}

func TestClean_RefusesDangerousTargets(t *testing.T) {
	c := New()

	if err := c.Clean(context.Background(), ""); err == nil {
		t.Error("expected error for empty path")
	}
	if err := c.Clean(context.Background(), "/"); err == nil {
		t.Error("expected error for filesystem root")
	}
	if home, err := os.UserHomeDir(); err == nil {
		if err := c.Clean(context.Background(), home); err == nil {
			t.Error("expected error for home directory")
		}
	}
}
