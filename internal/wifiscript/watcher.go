package wifiscript

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 300 * time.Millisecond

// Watcher invalidates a Loader when files under its root change, so edited
// pages are served without a restart.
type Watcher struct {
	loader   *Loader
	logger   *slog.Logger
	debounce time.Duration
	onReload func()

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	timer   *time.Timer
}

// NewWatcher creates a watcher for loader's root. onReload, when non-nil, runs
// after each invalidation.
func NewWatcher(loader *Loader, logger *slog.Logger, onReload func()) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{loader: loader, logger: logger, debounce: defaultDebounce, onReload: onReload}
}

// Start begins watching the root and its subdirectories.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(w.loader.Root()); err != nil {
		fw.Close()
		return fmt.Errorf("watch template dir: %w", err)
	}
	_ = filepath.WalkDir(w.loader.Root(), func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() || p == w.loader.Root() {
			return nil
		}
		if err := fw.Add(p); err != nil {
			w.logger.Warn("cannot watch template subdirectory", "path", p, "error", err)
		}
		return nil
	})

	ctx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.watcher = fw
	w.cancel = cancel
	w.mu.Unlock()

	w.logger.Info("template hot reload enabled", "path", w.loader.Root())
	go w.loop(ctx, fw)
	return nil
}

// Stop ends watching. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	if w.watcher != nil {
		w.watcher.Close()
		w.watcher = nil
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if ev.Op&fsnotify.Create == fsnotify.Create {
				// New language directories need their own watch.
				_ = fw.Add(ev.Name)
			}
			w.schedule(ev.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Error("template watcher error", "error", err)
		}
	}
}

func (w *Watcher) schedule(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.loader.Invalidate()
		w.logger.Info("templates reloaded", "trigger", filepath.Base(name))
		if w.onReload != nil {
			w.onReload()
		}
	})
}
