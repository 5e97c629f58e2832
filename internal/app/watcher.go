package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"mcpbridge/pkg/logging"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceInterval groups the burst of events an editor produces when
// saving a file into a single reload.
const DefaultDebounceInterval = 500 * time.Millisecond

// ConfigWatcher calls onChange after the configuration file changes.
//
// The parent directory is watched rather than the file itself so that
// editors which save by renaming a temporary file over the original keep
// being observed.
type ConfigWatcher struct {
	mu sync.Mutex

	path     string
	debounce time.Duration
	onChange func(ctx context.Context)

	watcher *fsnotify.Watcher
	timer   *time.Timer
	stopCh  chan struct{}
	running bool
}

// NewConfigWatcher creates a watcher for path. A zero debounce uses
// DefaultDebounceInterval.
func NewConfigWatcher(path string, debounce time.Duration, onChange func(ctx context.Context)) (*ConfigWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if debounce == 0 {
		debounce = DefaultDebounceInterval
	}
	return &ConfigWatcher{
		path:     abs,
		debounce: debounce,
		onChange: onChange,
	}, nil
}

// Start begins watching. It returns immediately; events are processed until
// ctx is done or Stop is called.
func (w *ConfigWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}

	w.watcher = watcher
	w.stopCh = make(chan struct{})
	w.running = true

	go w.processEvents(ctx, watcher, w.stopCh)

	logging.Info("ConfigWatcher", "Watching %s for configuration changes", w.path)
	return nil
}

// Stop ends watching and cancels a pending reload.
func (w *ConfigWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}

	close(w.stopCh)
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	_ = w.watcher.Close()
	w.running = false
}

func (w *ConfigWatcher) processEvents(ctx context.Context, watcher *fsnotify.Watcher, stopCh <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return

		case <-stopCh:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.Error("ConfigWatcher", err, "File watcher error")
		}
	}
}

func (w *ConfigWatcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	logging.Debug("ConfigWatcher", "Observed %s on %s", event.Op, event.Name)

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		w.timer = nil
		running := w.running
		w.mu.Unlock()

		if running && ctx.Err() == nil {
			w.onChange(ctx)
		}
	})
}
