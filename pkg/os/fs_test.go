package os

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRemoveDirInsideRoot(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "123")
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := RemoveDir(root, dir); err != nil {
		t.Fatalf("expected removal to succeed, got %v", err)
	}
	exists, err := Exists(dir)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Fatalf("expected %s to be removed", dir)
	}
}

func TestRemoveDirRefusesOutsideRoot(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()

	if err := RemoveDir(root, outside); err == nil {
		t.Fatalf("expected removal outside of root to be refused")
	}
	if err := RemoveDir(root, root); err == nil {
		t.Fatalf("expected removal of the root itself to be refused")
	}
	if err := RemoveDir("/", "/tmp"); err == nil {
		t.Fatalf("expected filesystem root to be refused")
	}
}

func TestExecReturnsOutputOnFailure(t *testing.T) {
	_, err := Exec(context.Background(), Cmd{Name: "sh", Args: []string{"-c", "echo boom >&2; exit 3"}})
	if err == nil {
		t.Fatalf("expected error")
	}
	if got := err.Error(); !strings.Contains(got, "boom") {
		t.Fatalf("expected output in error, got %q", got)
	}
}

