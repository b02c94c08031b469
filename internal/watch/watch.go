// Package watch reloads configuration when files in the data directory
// change on disk.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher watches one directory and dispatches per-filename callbacks,
// debounced so editor save dances (write temp, rename over) fire once. The
// directory is watched rather than the files themselves because a rename
// replaces the inode a file watch would be pinned to.
type Watcher struct {
	dir      string
	debounce time.Duration
	log      zerolog.Logger

	fsw *fsnotify.Watcher

	mu       sync.Mutex
	handlers map[string]func()
	timers   map[string]*time.Timer
}

func New(dir string, debounce time.Duration, log zerolog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = time.Second
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		log:      log,
		fsw:      fsw,
		handlers: map[string]func(){},
		timers:   map[string]*time.Timer{},
	}, nil
}

// OnFile registers a callback for changes to the named file (base name,
// relative to the watched directory). Must be called before Start.
func (w *Watcher) OnFile(name string, fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[name] = fn
}

// Start begins dispatching until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.fsw.Add(w.dir); err != nil {
		return err
	}
	w.log.Info().Str("dir", w.dir).Msg("config watcher started")
	go w.loop(ctx)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.stopTimers()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.schedule(filepath.Base(event.Name))
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watcher error")
		}
	}
}

// schedule arms (or re-arms) the debounce timer for one file.
func (w *Watcher) schedule(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn, ok := w.handlers[name]
	if !ok {
		return
	}
	if t, ok := w.timers[name]; ok {
		t.Stop()
	}
	w.timers[name] = time.AfterFunc(w.debounce, func() {
		w.log.Info().Str("file", name).Msg("config file changed, reloading")
		fn()
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, t := range w.timers {
		t.Stop()
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
