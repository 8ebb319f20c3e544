// Package watch reports directories whose contents changed on disk.
package watch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors a small set of directories using fsnotify. Each change
// is reported as the path of the watched directory it happened in.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	changes   chan string
	stopChan  chan struct{}
	done      chan struct{}
	log       *slog.Logger

	mutex   sync.Mutex
	dirs    map[string]struct{}
	running bool
	stopped bool
}

// New creates a watcher. Nothing is watched until SetDirectories.
func New(logger *slog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		fsWatcher: fsWatcher,
		changes:   make(chan string, 16),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
		log:       logger,
		dirs:      map[string]struct{}{},
	}, nil
}

// Changes delivers changed directories. It is closed after Stop.
func (w *Watcher) Changes() <-chan string {
	return w.changes
}

// SetDirectories replaces the watched set. Directories that cannot be
// watched are skipped and reported in the returned error.
func (w *Watcher) SetDirectories(dirs ...string) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.stopped {
		return fmt.Errorf("watcher stopped")
	}

	want := map[string]struct{}{}
	for _, d := range dirs {
		want[filepath.Clean(d)] = struct{}{}
	}
	for d := range w.dirs {
		if _, ok := want[d]; !ok {
			_ = w.fsWatcher.Remove(d)
			delete(w.dirs, d)
		}
	}

	var firstErr error
	for d := range want {
		if _, ok := w.dirs[d]; ok {
			continue
		}
		info, err := os.Stat(d)
		if err == nil && !info.IsDir() {
			err = fmt.Errorf("%s is not a directory", d)
		}
		if err == nil {
			err = w.fsWatcher.Add(d)
		}
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to watch %s: %w", d, err)
			}
			continue
		}
		w.dirs[d] = struct{}{}
		w.log.Debug("watch: directory", slog.String("dir", d))
	}
	return firstErr
}

// Directories returns the watched set.
func (w *Watcher) Directories() []string {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	out := make([]string, 0, len(w.dirs))
	for d := range w.dirs {
		out = append(out, d)
	}
	return out
}

// Start begins the event loop.
func (w *Watcher) Start() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.running || w.stopped {
		return fmt.Errorf("watcher already started")
	}
	w.running = true
	go w.loop()
	return nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	defer close(w.changes)
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Remove) &&
				!event.Op.Has(fsnotify.Rename) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			dir := filepath.Dir(event.Name)
			// Send non-blockingly; a pending notification for the same burst is enough.
			select {
			case w.changes <- dir:
			default:
				w.log.Debug("watch: channel full, dropped event", slog.String("path", event.Name))
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch: fsnotify error", slog.Any("err", err))

		case <-w.stopChan:
			return
		}
	}
}

// Stop halts the watcher and closes Changes. It is safe to call twice.
func (w *Watcher) Stop() {
	w.mutex.Lock()
	if w.stopped {
		w.mutex.Unlock()
		return
	}
	w.stopped = true
	running := w.running
	close(w.stopChan)
	if err := w.fsWatcher.Close(); err != nil {
		w.log.Warn("watch: close", slog.Any("err", err))
	}
	w.mutex.Unlock()

	if running {
		<-w.done
	} else {
		close(w.changes)
	}
}
