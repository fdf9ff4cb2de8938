package config

import (
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a loaded agent file for edits. Task lists and connection
// settings are immutable once the agent is constructed, so a change only
// sets a reload-pending flag and notifies handlers; the operator restarts
// the loop when convenient. Rapid editor write bursts are debounced.
type Watcher struct {
	path     string
	fs       *fsnotify.Watcher
	debounce time.Duration

	mu            sync.Mutex
	handlers      []func()
	reloadPending bool
	stop          chan struct{}
}

// NewWatcher creates a watcher for one agent file.
func NewWatcher(path string) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		path:     path,
		fs:       fs,
		debounce: 300 * time.Millisecond,
	}, nil
}

// OnChange registers a handler invoked after a debounced file change.
func (w *Watcher) OnChange(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, fn)
}

// ReloadPending reports whether the file changed since the agent loaded it.
func (w *Watcher) ReloadPending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloadPending
}

// Start begins watching.
func (w *Watcher) Start() error {
	if err := w.fs.Add(w.path); err != nil {
		return err
	}
	w.stop = make(chan struct{})
	go w.loop()
	slog.Info("agent file watcher started", "path", w.path)
	return nil
}

// Stop halts the watcher.
func (w *Watcher) Stop() {
	if w.stop != nil {
		close(w.stop)
	}
	w.fs.Close()
}

func (w *Watcher) loop() {
	var timer *time.Timer
	for {
		select {
		case <-w.stop:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.fire)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Warn("agent file watcher error", "error", err)
		}
	}
}

func (w *Watcher) fire() {
	w.mu.Lock()
	w.reloadPending = true
	handlers := make([]func(), len(w.handlers))
	copy(handlers, w.handlers)
	w.mu.Unlock()

	slog.Info("agent file changed on disk; restart the loop to apply", "path", w.path)
	for _, fn := range handlers {
		fn()
	}
}
