package watch

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func newTestWatcher(t *testing.T) *Watcher {
	t.Helper()
	w, err := New(DefaultConfig(), t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() { _ = w.Stop() })
	return w
}

func TestFlushPendingBatchesChanges(t *testing.T) {
	w := newTestWatcher(t)

	w.handleFSEvent(fsnotify.Event{Name: filepath.Join(w.contentDir, "a.md"), Op: fsnotify.Write})
	w.handleFSEvent(fsnotify.Event{Name: filepath.Join(w.contentDir, "a.md"), Op: fsnotify.Write})
	w.handleFSEvent(fsnotify.Event{Name: filepath.Join(w.contentDir, "b.md"), Op: fsnotify.Create})
	w.flushPending()

	select {
	case change := <-w.Changes():
		if len(change.Paths) != 2 {
			t.Errorf("batch = %v, want two distinct paths", change.Paths)
		}
	default:
		t.Fatal("expected a change batch")
	}
}

func TestNonMatchingExtensionIgnored(t *testing.T) {
	w := newTestWatcher(t)

	w.handleFSEvent(fsnotify.Event{Name: filepath.Join(w.contentDir, "image.png"), Op: fsnotify.Write})
	w.flushPending()

	select {
	case change := <-w.Changes():
		t.Errorf("unexpected batch for ignored extension: %v", change.Paths)
	default:
	}
}

func TestExcludedDirectoryIgnored(t *testing.T) {
	w := newTestWatcher(t)

	w.handleFSEvent(fsnotify.Event{
		Name: filepath.Join(w.contentDir, "node_modules", "pkg", "readme.md"),
		Op:   fsnotify.Write,
	})
	w.flushPending()

	select {
	case change := <-w.Changes():
		t.Errorf("unexpected batch for excluded directory: %v", change.Paths)
	default:
	}
}

func TestFlushPendingEmptyNoBatch(t *testing.T) {
	w := newTestWatcher(t)
	w.flushPending()

	select {
	case <-w.Changes():
		t.Fatal("empty pending set should not emit a batch")
	default:
	}
}

func TestConfigDebounceDefault(t *testing.T) {
	cfg := Config{}
	if cfg.debounce() != 500*time.Millisecond {
		t.Errorf("debounce = %v, want 500ms default", cfg.debounce())
	}
	cfg.DebounceDelay = 2 * time.Second
	if cfg.debounce() != 2*time.Second {
		t.Errorf("debounce = %v, want 2s", cfg.debounce())
	}
}
