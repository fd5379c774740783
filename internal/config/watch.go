package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lobby/internal/logger"
)

const watchDebounce = 100 * time.Millisecond

// Watcher reports changes to a single file. The parent directory is watched
// so editors that replace the file on save are still observed.
type Watcher struct {
	Path    string
	Changes <-chan struct{}

	changes chan struct{}
	done    chan struct{}
	fsw     *fsnotify.Watcher
}

// NewWatcher creates a watcher for path. Call Start to begin receiving events.
func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	ch := make(chan struct{}, 1)
	return &Watcher{
		Path:    abs,
		Changes: ch,
		changes: ch,
		done:    make(chan struct{}),
		fsw:     fsw,
	}, nil
}

// Start adds the parent directory and launches the event loop.
func (w *Watcher) Start() error {
	if err := w.fsw.Add(filepath.Dir(w.Path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(w.Path), err)
	}
	go w.loop()
	return nil
}

// Stop closes the underlying watcher and waits for the loop to exit.
func (w *Watcher) Stop() error {
	err := w.fsw.Close()
	<-w.done
	close(w.changes)
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)

	ticker := time.NewTicker(watchDebounce)
	defer ticker.Stop()

	pending := false
	var last time.Time

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.Path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			pending = true
			last = time.Now()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("config watcher error", zap.String("path", w.Path), zap.Error(err))

		case <-ticker.C:
			if !pending || time.Since(last) < watchDebounce {
				continue
			}
			pending = false
			// Coalesce: a reader that has not drained the previous signal
			// will still see one.
			select {
			case w.changes <- struct{}{}:
			default:
			}
		}
	}
}
