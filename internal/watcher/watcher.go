// Package watcher reports, debounced, when files of interest in the data
// directory change. The headless watch command uses it to reload tasks
// written by another process.
package watcher

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of writes one sqlite commit produces
// (main file, -wal, -shm) into one callback.
const DefaultDebounce = 200 * time.Millisecond

// Watcher watches one directory and calls back with the base names that
// changed since the previous callback.
type Watcher struct {
	fsw      *fsnotify.Watcher
	names    map[string]bool
	delay    time.Duration
	callback func(changed []string)

	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]bool
}

// New watches dir. When names is non-empty only those base names count.
func New(dir string, names []string, delay time.Duration, callback func(changed []string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	if delay <= 0 {
		delay = DefaultDebounce
	}

	w := &Watcher{
		fsw:      fsw,
		names:    make(map[string]bool, len(names)),
		delay:    delay,
		callback: callback,
		pending:  make(map[string]bool),
	}
	for _, n := range names {
		w.names[n] = true
	}
	return w, nil
}

// Run starts the watch loop. It blocks until ctx is canceled or the watcher
// is closed. Errors from fsnotify go to the optional errFn.
func (w *Watcher) Run(ctx context.Context, errFn func(error)) {
	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			name := filepath.Base(event.Name)
			if len(w.names) > 0 && !w.names[name] {
				continue
			}
			w.debounce(name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if errFn != nil {
				errFn(err)
			}
		}
	}
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) debounce(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[name] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	changed := make([]string, 0, len(w.pending))
	for n := range w.pending {
		changed = append(changed, n)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	if len(changed) == 0 {
		return
	}
	sort.Strings(changed)
	w.callback(changed)
}
