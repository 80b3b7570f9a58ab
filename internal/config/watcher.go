package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the manager when its config or settings files change
// on disk. Parent directories are watched rather than the files
// themselves so atomic-rename saves (the common editor behavior) are
// still observed.
type Watcher struct {
	manager  *Manager
	fw       *fsnotify.Watcher
	debounce time.Duration

	// watched maps absolute file paths to true for event filtering.
	watched map[string]bool

	// onError receives reload failures; may be nil.
	onError func(error)
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the quiet period before a reload fires.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithErrorHandler receives reload and watch errors.
func WithErrorHandler(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// NewWatcher creates a watcher for the manager's config file and the
// currently configured settings file.
func NewWatcher(m *Manager, opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		manager:  m,
		fw:       fw,
		debounce: 200 * time.Millisecond,
		watched:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}

	paths := []string{m.ConfigPath(), m.Config().SettingsFile}
	dirs := make(map[string]bool)
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		w.watched[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	for dir := range dirs {
		// A directory that does not exist yet is not fatal; the file
		// cannot change until it does.
		_ = fw.Add(dir)
	}

	return w, nil
}

// Start begins watching. It returns immediately; the watch loop runs
// until ctx is cancelled or Close is called.
func (w *Watcher) Start(ctx context.Context) {
	go w.loop(ctx)
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fw.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}

		case <-fire:
			timer = nil
			fire = nil
			if err := w.manager.Reload(); err != nil && w.onError != nil {
				w.onError(err)
			}
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	return w.watched[abs]
}
