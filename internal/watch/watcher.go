// Package watch reports batches of changed files under a directory tree.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultIgnore lists directory and file names that are never watched.
var DefaultIgnore = []string{".git", "node_modules", ".DS_Store"}

// Watcher watches a directory tree and delivers debounced batches of
// changed file paths, relative to the root and slash-separated.
type Watcher struct {
	watcher  *fsnotify.Watcher
	root     string
	debounce time.Duration

	// Paths to ignore (e.g., .git, node_modules)
	ignorePaths []string

	// Called with watcher errors; the watch keeps running
	onError func(error)

	mu       sync.Mutex
	stopOnce sync.Once
}

// Option configures a Watcher
type Option func(*Watcher)

// WithIgnore replaces the ignored names
func WithIgnore(names ...string) Option {
	return func(w *Watcher) { w.ignorePaths = names }
}

// WithErrorHandler sets the callback for fsnotify errors
func WithErrorHandler(fn func(error)) Option {
	return func(w *Watcher) { w.onError = fn }
}

// New creates a Watcher over root. Nothing is delivered until Run is called.
func New(root string, debounce time.Duration, opts ...Option) (*Watcher, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch root %s is not a directory", root)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:     fw,
		root:        filepath.Clean(root),
		debounce:    debounce,
		ignorePaths: DefaultIgnore,
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.watchDirRecursive(w.root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// watchDirRecursive adds all subdirectories to the watcher
func (w *Watcher) watchDirRecursive(root string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors, continue walking
		}

		if path != w.root && w.ignored(path) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		// We can only watch directories with fsnotify
		if info.IsDir() {
			if path == w.root {
				return w.watcher.Add(path)
			}
			_ = w.watcher.Add(path)
		}
		return nil
	})
}

// WatchedDirs returns the directories currently watched
func (w *Watcher) WatchedDirs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	dirs := w.watcher.WatchList()
	slices.Sort(dirs)
	return dirs
}

// Run delivers batches to onBatch until ctx is done, then closes the
// watcher and returns nil. onBatch runs on the watch goroutine, so events
// that arrive while it runs are collected into the next batch.
func (w *Watcher) Run(ctx context.Context, onBatch func([]string)) error {
	defer w.Close()

	// Debounce events - many editors create multiple events for a single save
	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C // drain initial timer

	pending := make(map[string]struct{})
	var order []string

	for {
		select {
		case <-ctx.Done():
			debounceTimer.Stop()
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.ignored(event.Name) {
				continue
			}

			// New directories are watched as they appear
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.watchDirRecursive(event.Name); err != nil {
						w.reportError(err)
					}
					continue
				}
			}

			// Only care about write/create operations
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			rel, err := filepath.Rel(w.root, event.Name)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if _, seen := pending[rel]; !seen {
				pending[rel] = struct{}{}
				order = append(order, rel)
			}

			// Reset debounce timer
			debounceTimer.Reset(w.debounce)

		case <-debounceTimer.C:
			if len(order) == 0 {
				continue
			}
			batch := order
			pending = make(map[string]struct{})
			order = nil
			onBatch(batch)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.reportError(err)
		}
	}
}

// Close stops the underlying fsnotify watcher. It is safe to call more than once.
func (w *Watcher) Close() {
	w.stopOnce.Do(func() {
		_ = w.watcher.Close()
	})
}

func (w *Watcher) reportError(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}

// ignored reports whether any element of path is an ignored name
func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = path
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if slices.Contains(w.ignorePaths, part) {
			return true
		}
	}
	return false
}
