// Package watch sorts dump files as they land in a directory.
//
// Create and write events are debounced per path: a file is handed off only
// after it has been quiet for the settle period, so a dump that is still
// being copied in is not processed half written.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Options configures a Watcher.
type Options struct {
	Dir    string                  // Directory to watch (not recursive)
	Settle time.Duration           // Quiet period before a file is handled
	Match  func(path string) bool  // Optional filter; nil accepts every file
	Handle func(path string) error // Called once per settled file
	Logger *zap.Logger
}

// Watcher watches a directory and hands settled files to a handler.
type Watcher struct {
	opts   Options
	logger *zap.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	settled chan string
	done    chan struct{}
	ready   chan struct{}
}

// New creates a new Watcher with the given options.
func New(opts Options) *Watcher {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		opts:    opts,
		logger:  logger,
		pending: make(map[string]*time.Timer),
		settled: make(chan string),
		done:    make(chan struct{}),
		ready:   make(chan struct{}),
	}
}

// Ready is closed once the directory is being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches the directory until ctx is cancelled or the watcher fails.
// Handler errors are logged and do not stop the watch. Files still settling
// when Run returns are not handled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to setup watcher: %w", err)
	}
	defer fw.Close()
	defer w.stop()

	if err := fw.Add(w.opts.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.opts.Dir, err)
	}
	close(w.ready)
	w.logger.Info("watching directory",
		zap.String("dir", w.opts.Dir),
		zap.Duration("settle", w.opts.Settle))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return fmt.Errorf("watcher closed unexpectedly")
			}
			w.handleEvent(event)

		case path := <-w.settled:
			w.logger.Debug("file settled", zap.String("file", path))
			if err := w.opts.Handle(path); err != nil {
				w.logger.Error("handle failed", zap.String("file", path), zap.Error(err))
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		if w.opts.Match != nil && !w.opts.Match(path) {
			return
		}
		w.schedule(path)

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.cancel(path)
	}
}

// schedule starts or restarts the settle timer for path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Reset(w.opts.Settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.opts.Settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		select {
		case w.settled <- path:
		case <-w.done:
		}
	})
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

// stop cancels every pending timer and releases fired ones.
func (w *Watcher) stop() {
	w.mu.Lock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()
	close(w.done)
}
