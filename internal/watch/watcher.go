// Package watch reloads configuration and item catalogs when their files change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/dynlinks/internal/logfields"
)

// DefaultDebounce coalesces the burst of events editors emit for a single save.
const DefaultDebounce = 500 * time.Millisecond

// ReloadFunc is invoked after a watched file settled.
type ReloadFunc func(ctx context.Context) error

// Watcher monitors a set of files and runs their reload action, debounced.
type Watcher struct {
	watcher      *fsnotify.Watcher
	mu           sync.Mutex
	targets      map[string]ReloadFunc
	started      bool
	stopOnce     sync.Once
	stopChan     chan struct{}
	reloadChan   chan string
	debounceTime time.Duration
}

// New creates a watcher. A non-positive debounce uses DefaultDebounce.
func New(debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		watcher:      fw,
		targets:      make(map[string]ReloadFunc),
		stopChan:     make(chan struct{}),
		reloadChan:   make(chan string, 16),
		debounceTime: debounce,
	}, nil
}

// Add registers path with its reload action. It must be called before Start.
func (w *Watcher) Add(path string, reload ReloadFunc) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path %s: %w", path, err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return fmt.Errorf("watcher already started")
	}
	w.targets[absPath] = reload
	return nil
}

// Start begins monitoring. Directories are watched rather than the files themselves
// so that editors replacing a file by rename are still noticed.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	dirs := make(map[string]struct{})
	for p := range w.targets {
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}
	w.started = true

	slog.Info("Starting file watcher", slog.Int("files", len(w.targets)), slog.Duration("debounce", w.debounceTime))

	go w.watchLoop(ctx)
	go w.reloadLoop(ctx)
	return nil
}

// Stop stops the watcher. It is safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		slog.Info("Stopping file watcher")
		close(w.stopChan)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) reloadFor(name string) (string, bool) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.targets[abs]
	return abs, ok
}

// watchLoop forwards relevant file system events to the reload loop.
func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			path, watched := w.reloadFor(event.Name)
			if !watched {
				continue
			}

			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create), event.Has(fsnotify.Rename):
				slog.Debug("Watched file changed", logfields.File(path), slog.String("op", event.Op.String()))
				select {
				case w.reloadChan <- path:
				case <-w.stopChan:
					return
				}
			case event.Has(fsnotify.Remove):
				slog.Warn("Watched file removed", logfields.File(path))
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", logfields.Error(err))
		}
	}
}

// reloadLoop collects changed paths until the debounce window passes, then reloads
// each of them once, in path order.
func (w *Watcher) reloadLoop(ctx context.Context) {
	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounceTime)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case path := <-w.reloadChan:
			pending[path] = struct{}{}
			timer.Reset(w.debounceTime)
		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)
			for _, p := range paths {
				w.perform(ctx, p)
			}
		}
	}
}

func (w *Watcher) perform(ctx context.Context, path string) {
	w.mu.Lock()
	reload := w.targets[path]
	w.mu.Unlock()
	if reload == nil {
		return
	}
	slog.Info("Reloading", logfields.File(path))
	if err := reload(ctx); err != nil {
		slog.Error("Reload failed; keeping previous state", logfields.File(path), logfields.Error(err))
		return
	}
	slog.Info("Reloaded", logfields.File(path))
}
