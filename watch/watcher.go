// Package watch turns changes to the settings and last-run files into bus
// events, so edits made outside the dashboard reach connected clients.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"shimwrapper-dashboard/events"
	"shimwrapper-dashboard/rc"
	"shimwrapper-dashboard/runlog"
	"shimwrapper-dashboard/store"
)

// DefaultDebounce collapses bursts of writes to one file into one event.
const DefaultDebounce = 200 * time.Millisecond

// Watcher watches the project root and its .shimwrapper directory.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	root     string
	bus      *events.Bus
	logger   *zap.Logger
	debounce time.Duration
	pending  map[string]time.Time
	topics   map[string]events.Topic
}

// New creates a Watcher. Run must be called to start delivering events.
func New(root string, bus *events.Bus, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  fw,
		root:     root,
		bus:      bus,
		logger:   logger,
		debounce: DefaultDebounce,
		pending:  make(map[string]time.Time),
		topics: map[string]events.Topic{
			filepath.Join(root, store.FileName): events.SettingsChanged,
			filepath.Join(root, rc.FileName):    events.SettingsChanged,
			runlog.Path(root):                   events.RunlogUpdated,
		},
	}, nil
}

// SetDebounce overrides the debounce window. Call before Run.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Run watches until ctx is cancelled, then closes the underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	runDir := filepath.Join(w.root, runlog.Dir)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		w.logger.Warn("create run dir", zap.String("path", runDir), zap.Error(err))
	}
	if err := w.watcher.Add(w.root); err != nil {
		return err
	}
	if err := w.watcher.Add(runDir); err != nil {
		w.logger.Warn("watch run dir", zap.String("path", runDir), zap.Error(err))
	}
	w.logger.Debug("watching project files", zap.String("root", w.root))

	tick := w.debounce / 4
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		case now := <-ticker.C:
			w.flush(now)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if _, ok := w.topics[ev.Name]; !ok {
		return
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	w.mu.Lock()
	w.pending[ev.Name] = time.Now().Add(w.debounce)
	w.mu.Unlock()
}

// flush publishes one event per topic for every path whose quiet period has
// elapsed.
func (w *Watcher) flush(now time.Time) {
	w.mu.Lock()
	due := make(map[events.Topic][]string)
	for path, at := range w.pending {
		if now.Before(at) {
			continue
		}
		delete(w.pending, path)
		topic := w.topics[path]
		due[topic] = append(due[topic], filepath.Base(path))
	}
	w.mu.Unlock()

	for topic, files := range due {
		w.logger.Debug("project file changed", zap.String("topic", string(topic)), zap.Strings("files", files))
		if w.bus != nil {
			w.bus.Publish(events.Event{Topic: topic, Data: map[string]any{"source": "fs", "files": files}})
		}
	}
}
