package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/okian/campaignboard/pkg/logger"
)

// invalidatingOps are the events that make a cached dataset stale.
const invalidatingOps = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// Watcher invalidates store entries when their source files change on disk.
// It watches directories rather than files so that editors which replace a
// file by rename are still seen.
type Watcher struct {
	store   *Store
	watcher *fsnotify.Watcher
	log     logger.Logger

	mu   sync.Mutex
	dirs map[string]struct{}

	// OnInvalidate, when set, is called with each key the watcher dropped.
	OnInvalidate func(key string)

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewWatcher creates a watcher over store. Call Run to start it.
func NewWatcher(store *Store, log logger.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	return &Watcher{
		store:   store,
		watcher: fw,
		log:     log,
		dirs:    make(map[string]struct{}),
	}, nil
}

// Watch adds the directory of path to the watch list.
func (w *Watcher) Watch(path string) error {
	key, err := Key(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(key)

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.dirs[dir]; ok {
		return nil
	}
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.dirs[dir] = struct{}{}
	return nil
}

// Dirs returns the number of watched directories.
func (w *Watcher) Dirs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.dirs)
}

// Run consumes file events in the background until ctx is done or Close is
// called.
func (w *Watcher) Run(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				w.handle(ctx, event)
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				if w.log != nil {
					w.log.Warn(ctx, "file watcher error", logger.Error(err))
				}
			}
		}
	}()
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	if event.Op&invalidatingOps == 0 {
		return
	}
	key, err := Key(event.Name)
	if err != nil {
		return
	}
	if !w.store.invalidate(key, ReasonWatch) {
		return
	}
	if w.log != nil {
		w.log.Info(ctx, "dataset source changed",
			logger.String("path", key),
			logger.String("op", event.Op.String()))
	}
	if w.OnInvalidate != nil {
		w.OnInvalidate(key)
	}
}

// Close stops the watcher and waits for Run to return.
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}
