// Package watcher reports changes to a fixed set of toolchain files.
//
// Watch mode re-runs the environment checks whenever a watched path
// changes: the NDK's source.properties after an upgrade, or the project
// configuration after an edit. Events are coalesced within a debounce
// window so an NDK install that touches a file hundreds of times
// triggers one re-check, not hundreds.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches individual files and flat directories via fsnotify
// and emits debounced batches of changed paths.
type Watcher struct {
	fsw     *fsnotify.Watcher
	window  time.Duration
	changes chan []string
	errs    chan error

	mu      sync.Mutex
	files   map[string]bool
	dirs    map[string]bool
	pending map[string]struct{}
	timer   *time.Timer
	closed  bool
}

// New creates a watcher that coalesces events within window.
func New(window time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		fsw:     fsw,
		window:  window,
		changes: make(chan []string, 8),
		errs:    make(chan error, 8),
		files:   make(map[string]bool),
		dirs:    make(map[string]bool),
		pending: make(map[string]struct{}),
	}, nil
}

// AddFile watches a single file. The parent directory is watched
// instead of the file itself so editors that replace the file on save
// (write to temp, rename over) are still seen.
func (w *Watcher) AddFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	dir := filepath.Dir(abs)
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.mu.Lock()
	w.files[abs] = true
	w.mu.Unlock()
	return nil
}

// AddDir watches a directory, non-recursively. Changes to any entry
// directly inside it are reported.
func (w *Watcher) AddDir(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	if err := w.fsw.Add(abs); err != nil {
		return fmt.Errorf("failed to watch %s: %w", abs, err)
	}

	w.mu.Lock()
	w.dirs[abs] = true
	w.mu.Unlock()
	return nil
}

// Run pumps file system events until ctx is cancelled or the watcher
// is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.emitError(err)
		}
	}
}

// Changes returns debounced batches of changed paths, sorted.
func (w *Watcher) Changes() <-chan []string {
	return w.changes
}

// Errors returns non-fatal watcher errors. Watching continues after
// an error is emitted.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Close stops the watcher. Safe to call multiple times.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.timer != nil {
		w.timer.Stop()
	}
	return w.fsw.Close()
}

// handle filters an fsnotify event down to the watched set and adds it
// to the pending batch.
func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		// Chmod noise
		return
	}

	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if !w.files[abs] && !w.dirs[abs] && !w.dirs[filepath.Dir(abs)] {
		return
	}

	w.pending[abs] = struct{}{}
	w.scheduleFlush()
}

// scheduleFlush restarts the debounce timer. Caller holds w.mu.
func (w *Watcher) scheduleFlush() {
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.window, w.flush)
}

// flush emits the pending batch.
func (w *Watcher) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || len(w.pending) == 0 {
		return
	}

	batch := make([]string, 0, len(w.pending))
	for p := range w.pending {
		batch = append(batch, p)
	}
	sort.Strings(batch)
	w.pending = make(map[string]struct{})

	// Non-blocking send
	select {
	case w.changes <- batch:
	default:
		slog.Warn("watcher output full, dropping batch",
			slog.Int("batch_size", len(batch)),
		)
	}
}

func (w *Watcher) emitError(err error) {
	select {
	case w.errs <- err:
	default:
		slog.Warn("watcher error channel full, dropping error",
			slog.String("error", err.Error()),
		)
	}
}
