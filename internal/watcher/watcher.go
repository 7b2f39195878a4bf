// Package watcher reports changes to individual files with fsnotify and debouncing.
package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches a set of files and calls onChange once a burst of writes to one of
// them has settled. Parent directories are watched rather than the files, so editors
// that replace a file via rename are still seen.
type Watcher struct {
	files       map[string]struct{} // cleaned absolute paths
	onChange    func(path string)
	debounce    time.Duration
	watcher     *fsnotify.Watcher
	mu          sync.Mutex
	debounceMap map[string]*time.Timer
	done        chan struct{}
	started     bool
	stopOnce    sync.Once
	logger      *zap.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce overrides the quiet period before onChange fires (400ms by default).
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// NewWatcher creates a watcher for files. Relative paths are made absolute.
func NewWatcher(files []string, onChange func(path string), opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		files:       make(map[string]struct{}, len(files)),
		onChange:    onChange,
		debounce:    defaultDebounce,
		debounceMap: make(map[string]*time.Timer),
		done:        make(chan struct{}),
		logger:      zap.NewNop(),
	}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, err
		}
		w.files[filepath.Clean(abs)] = struct{}{}
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start starts the watcher. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dirs := make(map[string]struct{})
	for f := range w.files {
		dirs[filepath.Dir(f)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return err
		}
	}
	w.watcher = watcher
	w.started = true
	w.logger.Debug("watcher started", zap.Strings("files", w.Files()))
	go w.run(ctx, watcher)
	return nil
}

func (w *Watcher) run(ctx context.Context, watcher *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-watcher.Errors:
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
	path := filepath.Clean(ev.Name)
	if _, ok := w.files[path]; !ok {
		return
	}
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	switch {
	case ev.Op.Has(fsnotify.Create), ev.Op.Has(fsnotify.Write):
		w.debounceChange(path)
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		// The replacement, if any, arrives as a Create.
		w.cancelDebounce(path)
	}
}

func (w *Watcher) debounceChange(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
	}
	w.debounceMap[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		w.mu.Unlock()
		w.logger.Debug("watcher file changed (debounced)", zap.String("path", path))
		if w.onChange != nil {
			w.onChange(path)
		}
	})
}

func (w *Watcher) cancelDebounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
		delete(w.debounceMap, path)
	}
}

// Files returns the watched file paths.
func (w *Watcher) Files() []string {
	files := make([]string, 0, len(w.files))
	for f := range w.files {
		files = append(files, f)
	}
	return files
}

// Stop stops the watcher and releases resources. Pending changes are dropped.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.watcher == nil {
		w.mu.Unlock()
		return
	}
	for path, t := range w.debounceMap {
		t.Stop()
		delete(w.debounceMap, path)
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
