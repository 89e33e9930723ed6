package layout

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"

	"github.com/lixenwraith/rectlap/core"
	"github.com/lixenwraith/rectlap/event"
)

// DefaultDebounce coalesces editor save bursts into one reload
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads a layout file when it changes on disk and posts the result to a queue
// The parent directory is watched so atomic rename-on-save editors are seen
type Watcher struct {
	path     string
	queue    *event.Queue
	debounce time.Duration
	logger   logr.Logger

	watcher *fsnotify.Watcher
	last    atomic.Uint64 // Fingerprint of the last posted layout

	mu      sync.Mutex
	timer   *time.Timer
	started bool
	stopped bool
	done    chan struct{}
}

// NewWatcher creates a watcher for path; a zero debounce uses DefaultDebounce
func NewWatcher(path string, queue *event.Queue, debounce time.Duration, logger logr.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		path:     filepath.Clean(path),
		queue:    queue,
		debounce: debounce,
		logger:   logger.WithName("layout-watcher").WithValues("path", path),
		done:     make(chan struct{}),
	}
}

// SetBaseline records the fingerprint of the layout already loaded
// Change notifications with the same fingerprint are dropped
func (w *Watcher) SetBaseline(fp uint64) {
	w.last.Store(fp)
}

// Name implements Service
func (w *Watcher) Name() string {
	return "layout-watcher"
}

// Dependencies implements Service
func (w *Watcher) Dependencies() []string {
	return nil
}

// Init creates the fsnotify watcher and subscribes to the layout directory
func (w *Watcher) Init(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		_ = fw.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.watcher = fw
	return nil
}

// Start begins the event loop
func (w *Watcher) Start() error {
	if w.watcher == nil {
		return errors.New("layout watcher not initialized")
	}
	w.mu.Lock()
	w.started = true
	w.mu.Unlock()
	core.Go(w.loop)
	w.logger.Info("Watching layout file")
	return nil
}

// Stop closes the watcher and cancels a pending reload; idempotent
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	started := w.started
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	if started {
		<-w.done
	}
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				w.schedule()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error(err, "File watcher error")
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

// reload loads the file and posts the outcome
func (w *Watcher) reload() {
	w.mu.Lock()
	stopped := w.stopped
	w.mu.Unlock()
	if stopped {
		return
	}

	rects, err := Load(w.path)
	if err != nil {
		w.logger.Error(err, "Layout reload failed")
		w.post(event.Event{
			Type:    event.EventLayoutError,
			Payload: &event.LayoutErrorPayload{Path: w.path, Err: err},
		})
		return
	}

	fp := Fingerprint(rects)
	if w.last.Swap(fp) == fp {
		w.logger.V(1).Info("Layout unchanged", "fingerprint", fp)
		return
	}

	w.logger.Info("Layout changed", "rects", len(rects), "fingerprint", fp)
	w.post(event.Event{
		Type:    event.EventLayoutChanged,
		Payload: &event.LayoutChangedPayload{Path: w.path, Rects: rects, Fingerprint: fp},
	})
}

func (w *Watcher) post(ev event.Event) {
	if err := w.queue.Push(ev); err != nil {
		w.logger.Error(err, "Dropped layout event", "type", ev.Type.String())
	}
}
