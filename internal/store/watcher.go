package store

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/benresonance-star/Task-Checker-sub001/internal/event"
	"github.com/benresonance-star/Task-Checker-sub001/internal/logging"
)

// debounceWindow collapses the burst of fsnotify events an atomic
// rename produces into a single remote-update notification.
const debounceWindow = 50 * time.Millisecond

// Watcher observes the data directory for writes made by other clients
// and publishes remote.updated events. Our own writes also trigger
// events; consumers reload the document and merge last-writer-wins, so
// self-notifications are harmless echoes.
type Watcher struct {
	watcher *fsnotify.Watcher
	bus     *event.Bus
	logger  *logging.Logger
	dataDir string

	mu      sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
}

// NewWatcher creates a Watcher over the store's data directory.
func NewWatcher(dataDir string, bus *event.Bus, logger *logging.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Watcher{
		watcher: fsw,
		bus:     bus,
		logger:  logger.WithComponent("store.watcher"),
		dataDir: dataDir,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Start begins watching the users/ and instances/ subdirectories.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}

	for _, sub := range []string{"users", "instances"} {
		if err := w.watcher.Add(filepath.Join(w.dataDir, sub)); err != nil {
			return err
		}
	}

	w.started = true
	go w.watchLoop()
	return nil
}

// Stop stops the watcher and waits for the watch loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.started = false
	w.mu.Unlock()

	close(w.stopCh)
	_ = w.watcher.Close()
	<-w.doneCh
}

// watchLoop debounces filesystem events and publishes one remote.updated
// event per changed document.
func (w *Watcher) watchLoop() {
	defer close(w.doneCh)

	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C // drain initial timer

	pending := make(map[string]struct{})

	for {
		select {
		case <-w.stopCh:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// Atomic replaces surface as Create (rename target) or Write.
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if strings.HasPrefix(filepath.Base(ev.Name), ".tmp-") {
				continue
			}

			pending[ev.Name] = struct{}{}
			debounceTimer.Reset(debounceWindow)

		case <-debounceTimer.C:
			for path := range pending {
				w.handleChanged(path)
			}
			pending = make(map[string]struct{})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// handleChanged maps a changed file path to a document kind and ID and
// publishes the remote-update event.
func (w *Watcher) handleChanged(path string) {
	kind, id, ok := w.classify(path)
	if !ok {
		return
	}

	w.logger.Debug("remote document changed", "kind", string(kind), "id", id)
	w.bus.Publish(event.NewRemoteUpdatedEvent(kind, id))
}

// classify derives the document kind and ID from a path under dataDir.
func (w *Watcher) classify(path string) (event.RemoteUpdateKind, string, bool) {
	rel, err := filepath.Rel(w.dataDir, path)
	if err != nil {
		return "", "", false
	}
	rel = filepath.ToSlash(rel)

	if !strings.HasSuffix(rel, ".json") {
		return "", "", false
	}

	switch {
	case strings.HasPrefix(rel, "users/"):
		id := strings.TrimSuffix(strings.TrimPrefix(rel, "users/"), ".json")
		return event.RemoteUpdateUser, id, id != "" && !strings.Contains(id, "/")
	case strings.HasPrefix(rel, "instances/"):
		id := strings.TrimSuffix(strings.TrimPrefix(rel, "instances/"), ".json")
		return event.RemoteUpdateInstance, id, id != "" && !strings.Contains(id, "/")
	}
	return "", "", false
}
