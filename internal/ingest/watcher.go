package ingest

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher re-runs ingestion when the seed file changes. Editors rewrite files
// with bursts of events, so writes are debounced.
type Watcher struct {
	seedPath string
	onChange func(path string)
	debounce time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	timer    *time.Timer
	started  bool
	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher for seedPath. onChange is called with the seed
// path after changes settle.
func NewWatcher(seedPath string, onChange func(path string), logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		seedPath: filepath.Clean(seedPath),
		onChange: onChange,
		debounce: defaultDebounce,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start begins watching. It runs until ctx is cancelled or Stop is called.
// The seed file's directory is watched, not the file itself, so renames and
// rewrites are still observed.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := watcher.Add(filepath.Dir(w.seedPath)); err != nil {
		_ = watcher.Close()
		w.mu.Unlock()
		return err
	}
	w.watcher = watcher
	w.started = true
	w.mu.Unlock()

	w.logger.Info("watching seed file", zap.String("path", w.seedPath))
	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != w.seedPath {
		return
	}
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Rename) {
		return
	}
	w.logger.Debug("seed file event", zap.String("op", ev.Op.String()))

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if w.onChange != nil {
			w.onChange(w.seedPath)
		}
	})
}

// Stop stops the watcher and releases resources.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.watcher == nil {
		w.mu.Unlock()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
