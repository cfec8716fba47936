// Package watcher feeds drop folders into the organizer: file creates and
// writes become ingests, removals become deletions. Events are debounced per
// path so editors that write in bursts trigger one ingest.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches directory roots and invokes callbacks on file changes.
type Watcher struct {
	onIngest func(path string)
	onRemove func(path string)

	extensions []string
	recursive  bool
	debounce   time.Duration
	logger     *zap.Logger

	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	roots    []string
	watched  map[string][]string // root -> directories added to fsnotify
	pending  map[string]*time.Timer
	started  bool
	done     chan struct{}
	stopOnce sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce overrides the per-path debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New creates a watcher over the given roots. extensions filters which files
// are reported (empty means all); onIngest and onRemove receive absolute
// file paths.
func New(roots, extensions []string, recursive bool, onIngest, onRemove func(path string), opts ...Option) *Watcher {
	w := &Watcher{
		onIngest:   onIngest,
		onRemove:   onRemove,
		extensions: extensions,
		recursive:  recursive,
		debounce:   defaultDebounce,
		logger:     zap.NewNop(),
		roots:      roots,
		watched:    make(map[string][]string),
		pending:    make(map[string]*time.Timer),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It returns once the event loop is running; the
// loop exits when ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.fsw = fsw
	w.started = true
	for _, root := range w.roots {
		if err := w.watchTreeLocked(root); err != nil {
			_ = w.fsw.Close()
			w.fsw = nil
			w.started = false
			w.mu.Unlock()
			return err
		}
	}
	w.mu.Unlock()

	w.logger.Debug("watcher started",
		zap.Strings("roots", w.Directories()),
		zap.Strings("extensions", w.extensions),
		zap.Bool("recursive", w.recursive),
	)
	go w.loop(ctx)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	w.logger.Debug("fs event", zap.String("op", ev.Op.String()), zap.String("path", path))

	switch {
	case ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			w.adoptDirectory(path)
			return
		}
		if w.wanted(path) {
			w.scheduleIngest(path)
		}
	case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
		// A rename away from a watched root looks like a removal; the
		// destination produces its own create event if it is watched.
		w.cancelPending(path)
		if w.wanted(path) && w.onRemove != nil {
			w.onRemove(path)
		}
	}
}

// adoptDirectory starts watching a directory that appeared under a root and
// ingests its contents.
func (w *Watcher) adoptDirectory(dir string) {
	w.mu.Lock()
	if w.fsw != nil && w.recursive {
		root := w.rootOfLocked(dir)
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || !d.IsDir() {
				return err
			}
			if addErr := w.fsw.Add(path); addErr != nil {
				w.logger.Debug("watch add failed", zap.String("path", path), zap.Error(addErr))
				return nil
			}
			if root != "" {
				w.watched[root] = append(w.watched[root], path)
			}
			return nil
		})
	}
	w.mu.Unlock()
	w.ingestTree(dir)
}

func (w *Watcher) rootOfLocked(path string) string {
	for _, root := range w.roots {
		if inDir(filepath.Clean(root), path) {
			return filepath.Clean(root)
		}
	}
	return ""
}

func inDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// wanted reports whether path matches the extension filter.
func (w *Watcher) wanted(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

func (w *Watcher) scheduleIngest(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.logger.Debug("ingesting changed file", zap.String("path", path))
		if w.onIngest != nil {
			w.onIngest(path)
		}
	})
}

func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

// AddDirectory adds a root at runtime. With syncExisting, files already in
// the tree are ingested in the background.
func (w *Watcher) AddDirectory(root string, syncExisting bool) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	abs = filepath.Clean(abs)

	w.mu.Lock()
	if w.fsw == nil {
		w.mu.Unlock()
		return nil
	}
	for _, r := range w.roots {
		if filepath.Clean(r) == abs {
			w.mu.Unlock()
			return nil
		}
	}
	if err := w.watchTreeLocked(abs); err != nil {
		w.mu.Unlock()
		return err
	}
	w.roots = append(w.roots, abs)
	w.mu.Unlock()

	w.logger.Debug("watch root added", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	if syncExisting {
		go w.ingestTree(abs)
	}
	return nil
}

// watchTreeLocked registers root (and its subtree when recursive) with
// fsnotify, creating the root if it does not exist yet.
func (w *Watcher) watchTreeLocked(root string) error {
	root = filepath.Clean(root)
	if _, err := os.Stat(root); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		if err := os.MkdirAll(root, 0755); err != nil {
			return err
		}
	}

	if !w.recursive {
		if err := w.fsw.Add(root); err != nil {
			return err
		}
		w.watched[root] = []string{root}
		return nil
	}

	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return err
		}
		if err := w.fsw.Add(path); err != nil {
			return err
		}
		dirs = append(dirs, path)
		return nil
	})
	if err != nil {
		return err
	}
	w.watched[root] = dirs
	return nil
}

// RemoveDirectory stops watching a root. Documents already ingested from it
// are kept.
func (w *Watcher) RemoveDirectory(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	abs = filepath.Clean(abs)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw == nil {
		return nil
	}
	for i, r := range w.roots {
		if filepath.Clean(r) != abs {
			continue
		}
		for _, dir := range w.watched[abs] {
			_ = w.fsw.Remove(dir)
		}
		delete(w.watched, abs)
		w.roots = append(w.roots[:i], w.roots[i+1:]...)
		w.logger.Debug("watch root removed", zap.String("path", abs))
		return nil
	}
	return nil
}

// Directories returns a copy of the watched roots.
func (w *Watcher) Directories() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.roots...)
}

// SyncExisting ingests every matching file already present under the
// watched roots. Call after Start to pick up files that predate the watch.
func (w *Watcher) SyncExisting() {
	for _, root := range w.Directories() {
		w.ingestTree(root)
	}
}

func (w *Watcher) ingestTree(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if w.wanted(path) && w.onIngest != nil {
			w.onIngest(path)
		}
		return nil
	})
}

// Stop stops the watcher and cancels pending ingests. Safe to call twice.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.fsw == nil {
		w.mu.Unlock()
		return
	}
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	_ = w.fsw.Close()
	w.fsw = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
