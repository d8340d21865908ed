package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"convoke/pkg/logging"
)

const debounceDelay = 300 * time.Millisecond

// Watcher re-validates a run document whenever it changes on disk, which
// backs "validate --watch". Editors tend to emit several events per save,
// so events are debounced before the document is reloaded.
type Watcher struct {
	path     string
	onChange func(*Config, error)

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	timer   *time.Timer
	running bool
}

// NewWatcher creates a watcher for one run document. onChange receives
// either the reloaded config or the load error.
func NewWatcher(path string, onChange func(*Config, error)) *Watcher {
	return &Watcher{path: path, onChange: onChange}
}

// Start begins watching until the context is canceled or Stop is called.
// The containing directory is watched, not the file, so atomic
// rename-into-place saves are seen.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		w.mu.Unlock()
		return err
	}
	w.watcher = watcher
	w.running = true
	w.mu.Unlock()

	go w.processEvents(ctx)
	logging.Info("ConfigWatcher", "watching %s for changes", w.path)
	return nil
}

// Stop ends watching.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false
	if w.timer != nil {
		w.timer.Stop()
	}
	w.watcher.Close()
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("ConfigWatcher", err, "watch error on %s", w.path)
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounceDelay, func() {
		logging.Debug("ConfigWatcher", "reloading %s", w.path)
		w.onChange(Load(w.path))
	})
}
