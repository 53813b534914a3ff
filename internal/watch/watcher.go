// Package watch observes a content directory and emits debounced change
// batches so callers can trigger rebuilds.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/goliatone/go-sitegen/internal/logging"
	"github.com/goliatone/go-sitegen/pkg/interfaces"
)

const eventChannelBuffer = 64

// Config tunes watcher behaviour.
type Config struct {
	// DebounceDelay is how long to wait for more changes before emitting a batch.
	DebounceDelay time.Duration
	// FileExtensions lists the extensions that trigger a rebuild.
	FileExtensions []string
	// ExcludeDirs lists directory names skipped while watching.
	ExcludeDirs []string
}

// DefaultConfig returns the baseline watcher configuration.
func DefaultConfig() Config {
	return Config{
		DebounceDelay:  500 * time.Millisecond,
		FileExtensions: []string{".md"},
		ExcludeDirs:    []string{".git", "node_modules", "vendor"},
	}
}

func (c Config) debounce() time.Duration {
	if c.DebounceDelay <= 0 {
		return 500 * time.Millisecond
	}
	return c.DebounceDelay
}

// ChangeSet is one debounced batch of modified paths.
type ChangeSet struct {
	Paths []string
	At    time.Time
}

// Watcher emits ChangeSets for a content directory.
type Watcher struct {
	cfg        Config
	contentDir string
	watcher    *fsnotify.Watcher
	log        interfaces.Logger
	extensions map[string]bool
	excludes   map[string]bool

	pendingMu sync.Mutex
	pending   map[string]struct{}

	changes chan ChangeSet
}

// New creates a watcher rooted at contentDir.
func New(cfg Config, contentDir string, logger interfaces.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NoOp()
	}

	extensions := map[string]bool{}
	for _, ext := range cfg.FileExtensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extensions[strings.ToLower(ext)] = true
	}
	if len(extensions) == 0 {
		extensions[".md"] = true
	}

	excludes := map[string]bool{}
	for _, dir := range cfg.ExcludeDirs {
		excludes[dir] = true
	}

	return &Watcher{
		cfg:        cfg,
		contentDir: contentDir,
		watcher:    fsw,
		log:        logger,
		extensions: extensions,
		excludes:   excludes,
		pending:    map[string]struct{}{},
		changes:    make(chan ChangeSet, eventChannelBuffer),
	}, nil
}

// Changes returns the channel of debounced change batches. The channel is
// closed when the watcher stops.
func (w *Watcher) Changes() <-chan ChangeSet {
	return w.changes
}

// Start begins watching. It returns once watches are registered; events are
// delivered until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatchesRecursive(w.contentDir); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.log.Info("watcher started",
		"content_dir", w.contentDir,
		"debounce_ms", w.cfg.debounce().Milliseconds(),
	)
	return nil
}

// Stop closes the underlying filesystem watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if w.excludes[base] || (strings.HasPrefix(base, ".") && base != "." && path != root) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.log.Warn("failed to watch directory", "path", path, "error", err)
			return nil
		}
		w.log.Debug("watching directory", "path", path)
		return nil
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.changes)
	ticker := time.NewTicker(w.cfg.debounce())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("watcher error", "error", err)
		case <-ticker.C:
			w.flushPending()
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	ext := strings.ToLower(filepath.Ext(path))
	if !w.extensions[ext] {
		// New directories need watches of their own.
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				w.handleNewDirectory(path)
			}
		}
		return
	}

	relPath, _ := filepath.Rel(w.contentDir, path)
	for excludeDir := range w.excludes {
		if strings.Contains(relPath, excludeDir+string(filepath.Separator)) {
			return
		}
	}

	w.pendingMu.Lock()
	w.pending[path] = struct{}{}
	w.pendingMu.Unlock()

	w.log.Debug("document change detected", "path", relPath, "op", event.Op.String())
}

func (w *Watcher) handleNewDirectory(path string) {
	base := filepath.Base(path)
	if w.excludes[base] || strings.HasPrefix(base, ".") {
		return
	}
	if err := w.watcher.Add(path); err != nil {
		w.log.Warn("failed to watch new directory", "path", path, "error", err)
		return
	}
	w.log.Debug("added watch for new directory", "path", path)
}

func (w *Watcher) flushPending() {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = map[string]struct{}{}
	w.pendingMu.Unlock()

	select {
	case w.changes <- ChangeSet{Paths: paths, At: time.Now()}:
	default:
		w.log.Warn("change batch dropped, consumer too slow", "paths", len(paths))
	}
}
