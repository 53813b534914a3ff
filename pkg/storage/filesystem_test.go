package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFilesystemWriteAndRead(t *testing.T) {
	root := t.TempDir()
	provider := NewFilesystem(root, ".")
	ctx := context.Background()

	if _, err := provider.Exec(ctx, OpEnsureDir, "pages/guides"); err != nil {
		t.Fatalf("ensure_dir returned error: %v", err)
	}
	if _, err := provider.Exec(ctx, OpWrite, "pages/guides/index.html", strings.NewReader("<html>guide</html>")); err != nil {
		t.Fatalf("write returned error: %v", err)
	}

	onDisk, err := os.ReadFile(filepath.Join(root, "pages", "guides", "index.html"))
	if err != nil {
		t.Fatalf("read from disk: %v", err)
	}
	if string(onDisk) != "<html>guide</html>" {
		t.Errorf("on-disk content = %q", onDisk)
	}

	rows, err := provider.Query(ctx, OpRead, "pages/guides/index.html")
	if err != nil {
		t.Fatalf("read returned error: %v", err)
	}
	if rows == nil || !rows.Next() {
		t.Fatal("expected one row from read")
	}
	var data []byte
	if err := rows.Scan(&data); err != nil {
		t.Fatalf("scan returned error: %v", err)
	}
	if err := rows.Close(); err != nil {
		t.Fatalf("close returned error: %v", err)
	}
	if string(data) != "<html>guide</html>" {
		t.Errorf("scanned content = %q", data)
	}
}

func TestFilesystemReadMissing(t *testing.T) {
	provider := NewFilesystem(t.TempDir(), ".")
	rows, err := provider.Query(context.Background(), OpRead, "absent.html")
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if rows != nil {
		t.Error("missing file should yield nil rows")
	}
}

func TestFilesystemBasePrefixTrimmed(t *testing.T) {
	root := t.TempDir()
	provider := NewFilesystem(root, "public")
	ctx := context.Background()

	// Paths carrying the configured base must not double up on disk.
	if _, err := provider.Exec(ctx, OpWrite, "public/index.html", strings.NewReader("home")); err != nil {
		t.Fatalf("write returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "index.html")); err != nil {
		t.Errorf("expected trimmed path at root: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "public", "index.html")); err == nil {
		t.Error("base prefix should have been trimmed")
	}
}

func TestFilesystemRemove(t *testing.T) {
	root := t.TempDir()
	provider := NewFilesystem(root, ".")
	ctx := context.Background()

	if _, err := provider.Exec(ctx, OpWrite, "stale/page.html", strings.NewReader("old")); err != nil {
		t.Fatalf("write returned error: %v", err)
	}
	if _, err := provider.Exec(ctx, OpRemove, "stale"); err != nil {
		t.Fatalf("remove returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "stale")); !os.IsNotExist(err) {
		t.Errorf("stale directory should be gone, err = %v", err)
	}

	// Removing a missing path is fine.
	if _, err := provider.Exec(ctx, OpRemove, "never-existed"); err != nil {
		t.Fatalf("remove of missing path returned error: %v", err)
	}
}

func TestMemoryProvider(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	if _, err := mem.Exec(ctx, OpWrite, "a/index.html", strings.NewReader("A")); err != nil {
		t.Fatalf("write returned error: %v", err)
	}
	if _, err := mem.Exec(ctx, OpWrite, "b/index.html", strings.NewReader("B")); err != nil {
		t.Fatalf("write returned error: %v", err)
	}

	if data, ok := mem.File("a/index.html"); !ok || string(data) != "A" {
		t.Errorf("File = %q, %v", data, ok)
	}
	if paths := mem.Paths(); len(paths) != 2 || paths[0] != "a/index.html" {
		t.Errorf("Paths = %v", paths)
	}

	if _, err := mem.Exec(ctx, OpRemove, "a"); err != nil {
		t.Fatalf("remove returned error: %v", err)
	}
	if _, ok := mem.File("a/index.html"); ok {
		t.Error("removed file still present")
	}
	if _, ok := mem.File("b/index.html"); !ok {
		t.Error("unrelated file was removed")
	}
}
