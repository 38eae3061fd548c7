// Package filewatcher watches a directory for dataset files.
package filewatcher

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/phuslu/log"

	"github.com/0xcro3dile/tableqa-go/internal/domain/ports"
)

// DefaultSettle is how long a file must stay quiet before its event is emitted.
const DefaultSettle = 250 * time.Millisecond

// FSNotifyWatcher implements ports.FileWatcher using fsnotify.
// Bursts of events for the same file are coalesced into one, so a dataset
// that is written in several chunks is only reported once it settles.
type FSNotifyWatcher struct {
	watcher    *fsnotify.Watcher
	extensions []string
	settle     time.Duration
	logger     *log.Logger
}

// NewFSNotifyWatcher creates a watcher for the given extensions. It watches
// CSV, TSV and JSON files when extensions is empty.
func NewFSNotifyWatcher(extensions []string, logger *log.Logger) (*FSNotifyWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if len(extensions) == 0 {
		extensions = []string{".csv", ".tsv", ".json"}
	}
	if logger == nil {
		logger = &log.DefaultLogger
	}

	return &FSNotifyWatcher{
		watcher:    w,
		extensions: extensions,
		settle:     DefaultSettle,
		logger:     logger,
	}, nil
}

// Watch starts monitoring dir. The channel closes when ctx is done or the
// watcher is stopped.
func (w *FSNotifyWatcher) Watch(ctx context.Context, dir string) (<-chan ports.FileEvent, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	events := make(chan ports.FileEvent, 100)
	go w.loop(ctx, events)
	return events, nil
}

func (w *FSNotifyWatcher) loop(ctx context.Context, events chan<- ports.FileEvent) {
	defer close(events)

	pending := make(map[string]ports.FileOperation)
	timer := time.NewTimer(w.settle)
	timer.Stop()
	defer timer.Stop()

	flush := func() bool {
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		sort.Strings(paths)

		for _, p := range paths {
			select {
			case events <- ports.FileEvent{Path: p, Operation: pending[p]}:
			case <-ctx.Done():
				return false
			}
			delete(pending, p)
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.isWatchedExtension(event.Name) {
				continue
			}
			op, ok := translate(event.Op)
			if !ok {
				continue
			}
			pending[event.Name] = merge(pending[event.Name], op, hasPath(pending, event.Name))
			timer.Reset(w.settle)

		case <-timer.C:
			if !flush() {
				return
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("file watcher error")
		}
	}
}

func translate(op fsnotify.Op) (ports.FileOperation, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return ports.FileCreated, true
	case op.Has(fsnotify.Write):
		return ports.FileModified, true
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return ports.FileDeleted, true
	default:
		return 0, false
	}
}

// merge folds a new operation into the pending one for the same path.
// A create followed by writes stays a create; a delete always wins.
func merge(prev, next ports.FileOperation, seen bool) ports.FileOperation {
	if !seen || next == ports.FileDeleted {
		return next
	}
	if prev == ports.FileDeleted && next == ports.FileCreated {
		return ports.FileModified
	}
	return prev
}

func hasPath(m map[string]ports.FileOperation, p string) bool {
	_, ok := m[p]
	return ok
}

// Stop stops the watcher.
func (w *FSNotifyWatcher) Stop() error {
	return w.watcher.Close()
}

func (w *FSNotifyWatcher) isWatchedExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}
