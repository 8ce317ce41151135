package gate

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// dirWatcher wakes the poll loop early when the gated directory
// changes. It is an optimization only: events are collapsed into a
// single-slot channel and may be lost, in which case the next timed
// poll picks the change up.
type dirWatcher struct {
	watcher *fsnotify.Watcher
	logger  *slog.Logger
	events  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}

	mu      sync.Mutex
	stopped bool
}

// newDirWatcher starts watching dir and returns a watcher whose Events
// channel fires on creates, writes, and renames inside it.
func newDirWatcher(dir string, logger *slog.Logger) (*dirWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &dirWatcher{
		watcher: fw,
		logger:  logger,
		events:  make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Events returns the wake channel.
func (w *dirWatcher) Events() <-chan struct{} {
	return w.events
}

func (w *dirWatcher) loop() {
	defer close(w.doneCh)

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			select {
			case w.events <- struct{}{}:
			default:
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("directory watch error",
				slog.String("error", err.Error()),
			)
		}
	}
}

// Close stops the watcher and waits for its loop to exit. Safe to call
// more than once.
func (w *dirWatcher) Close() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	w.mu.Unlock()

	close(w.stopCh)
	_ = w.watcher.Close()
	<-w.doneCh
}
