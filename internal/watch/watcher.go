// Package watch monitors a drop directory for bar CSV files and emits
// each file once its events have settled.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 500 * time.Millisecond

// Event reports one settled file.
type Event struct {
	Path string
	Time time.Time
}

type Option func(*Watcher)

func WithDebounce(debounce time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = debounce
	}
}

func WithExtensions(extensions ...string) Option {
	return func(w *Watcher) {
		w.extensions = make(map[string]struct{}, len(extensions))
		for _, ext := range extensions {
			w.extensions[strings.ToLower(ext)] = struct{}{}
		}
	}
}

type Watcher struct {
	logger     *zap.Logger
	watcher    *fsnotify.Watcher
	dir        string
	debounce   time.Duration
	extensions map[string]struct{}
}

func NewWatcher(logger *zap.Logger, dir string, options ...Option) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("unable to watch %s: not a directory", dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("unable to create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("unable to watch %s: %w", dir, err)
	}

	w := &Watcher{
		logger:     logger,
		watcher:    fsw,
		dir:        dir,
		debounce:   defaultDebounce,
		extensions: map[string]struct{}{".csv": {}},
	}
	for _, option := range options {
		option(w)
	}
	return w, nil
}

// Scan lists the matching files already present in the directory, so a
// caller can drain the backlog before watching for new drops.
func (w *Watcher) Scan() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", w.dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !w.wants(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(w.dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Watch emits settled files until the context is cancelled. The
// returned channel is closed when watching stops.
func (w *Watcher) Watch(ctx context.Context) <-chan Event {
	out := make(chan Event, 64)

	go func() {
		defer close(out)

		pending := make(map[string]struct{})

		debounceTimer := time.NewTimer(0)
		if !debounceTimer.Stop() {
			<-debounceTimer.C
		}

		resetDebounce := func() {
			if !debounceTimer.Stop() {
				select {
				case <-debounceTimer.C:
				default:
				}
			}
			debounceTimer.Reset(w.debounce)
		}

		flush := func() {
			paths := make([]string, 0, len(pending))
			for path := range pending {
				paths = append(paths, path)
				delete(pending, path)
			}
			sort.Strings(paths)

			for _, path := range paths {
				if _, err := os.Stat(path); err != nil {
					continue
				}
				select {
				case out <- Event{Path: path, Time: time.Now()}:
				case <-ctx.Done():
					return
				}
			}
		}

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				// A rename into place surfaces as a create on the
				// final name, so create and write cover atomic drops.
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
					continue
				}
				if !w.wants(event.Name) {
					continue
				}
				pending[event.Name] = struct{}{}
				resetDebounce()

			case <-debounceTimer.C:
				if len(pending) > 0 {
					flush()
				}

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("watch error", zap.Error(err))
			}
		}
	}()

	return out
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) wants(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	_, ok := w.extensions[strings.ToLower(filepath.Ext(base))]
	return ok
}
