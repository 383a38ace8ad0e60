// Package watcher keeps the chunk store in step with a folder on disk.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// DefaultSettle is how long a path must be quiet before it is re-ingested.
const DefaultSettle = 500 * time.Millisecond

// Config configures a Watcher.
type Config struct {
	// Root is the folder to watch recursively.
	Root string

	// Supports reports whether a file can be loaded. Nil accepts everything.
	Supports func(path string) bool

	// Settle batches bursts of writes. Defaults to DefaultSettle.
	Settle time.Duration
}

// Event summarises what a flush did to one path.
type Event struct {
	Path     string
	FileHash string
	Removed  bool
	Err      error
}

// Watcher re-ingests files under a folder when they change.
// All ingestion happens on the Run goroutine, one path at a time.
type Watcher struct {
	cfg  Config
	docs driving.DocumentService
	log  *logger.Logger

	mu      sync.Mutex
	tracked map[string]string

	// OnEvent, if set, is called after each path is processed.
	OnEvent func(Event)
}

// New creates a watcher for cfg.Root.
func New(cfg Config, docs driving.DocumentService, log *logger.Logger) *Watcher {
	if cfg.Settle <= 0 {
		cfg.Settle = DefaultSettle
	}
	if cfg.Supports == nil {
		cfg.Supports = func(string) bool { return true }
	}
	return &Watcher{
		cfg:     cfg,
		docs:    docs,
		log:     log,
		tracked: make(map[string]string),
	}
}

// Tracked returns the file hash currently indexed for path.
func (w *Watcher) Tracked(path string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	hash, ok := w.tracked[path]
	return hash, ok
}

// Seed ingests every supported, visible file already under the root.
func (w *Watcher) Seed(ctx context.Context) ([]Event, error) {
	var paths []string
	err := filepath.WalkDir(w.cfg.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != w.cfg.Root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && w.cfg.Supports(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", w.cfg.Root, err)
	}

	events := make([]Event, 0, len(paths))
	for _, path := range paths {
		if ctx.Err() != nil {
			return events, ctx.Err()
		}
		events = append(events, w.reindex(ctx, path))
	}
	return events, nil
}

// Run watches the root until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.cfg.Root); err != nil {
		return err
	}
	w.log.Info("Watching %s", w.cfg.Root)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.cfg.Settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !w.hiddenPath(ev.Name) {
					if err := w.addTree(fw, ev.Name); err != nil {
						w.log.Warn("Watching new folder %s: %v", ev.Name, err)
					}
					continue
				}
			}
			if w.relevant(ev) {
				pending[ev.Name] = time.Now()
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("Watch error: %v", err)

		case now := <-ticker.C:
			w.flush(ctx, pending, now)
		}
	}
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.cfg.Root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// relevant filters events down to visible, supported files. Chmod-only
// events never change content and are dropped.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	if w.hiddenPath(ev.Name) {
		return false
	}
	if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
		return false
	}
	if _, ok := w.Tracked(ev.Name); ok {
		return true
	}
	return w.cfg.Supports(ev.Name)
}

// flush processes every pending path that has been quiet for Settle.
func (w *Watcher) flush(ctx context.Context, pending map[string]time.Time, now time.Time) {
	var ready []string
	for path, seen := range pending {
		if now.Sub(seen) >= w.cfg.Settle {
			ready = append(ready, path)
		}
	}
	sort.Strings(ready)

	for _, path := range ready {
		delete(pending, path)
		w.sync(ctx, path)
	}
}

// sync brings the index in line with the current state of path.
func (w *Watcher) sync(ctx context.Context, path string) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		w.remove(ctx, path)
	case err != nil:
		w.emit(Event{Path: path, Err: err})
	case info.Mode().IsRegular():
		w.reindex(ctx, path)
	}
}

func (w *Watcher) reindex(ctx context.Context, path string) Event {
	results := w.docs.Ingest(ctx, []string{path})
	ev := Event{Path: path}
	if len(results) == 0 || results[0].Document == nil {
		ev.Err = errors.New("no document produced")
		if len(results) > 0 && results[0].Err != nil {
			ev.Err = results[0].Err
		}
		w.log.Warn("Re-ingesting %s: %v", path, ev.Err)
		w.emit(ev)
		return ev
	}
	ev.FileHash = results[0].Document.FileHash

	old, had := w.Tracked(path)
	if had && old != ev.FileHash {
		if err := w.docs.Remove(ctx, old); err != nil {
			w.log.Warn("Removing stale chunks for %s: %v", path, err)
		}
	}

	w.mu.Lock()
	w.tracked[path] = ev.FileHash
	w.mu.Unlock()

	w.log.Info("Indexed %s (%s)", filepath.Base(path), ev.FileHash)
	w.emit(ev)
	return ev
}

func (w *Watcher) remove(ctx context.Context, path string) {
	hash, ok := w.Tracked(path)
	if !ok {
		return
	}
	ev := Event{Path: path, FileHash: hash, Removed: true}
	if err := w.docs.Remove(ctx, hash); err != nil {
		ev.Err = err
		w.log.Warn("Removing %s: %v", path, err)
	} else {
		w.mu.Lock()
		delete(w.tracked, path)
		w.mu.Unlock()
		w.log.Info("Removed %s", filepath.Base(path))
	}
	w.emit(ev)
}

func (w *Watcher) emit(ev Event) {
	if w.OnEvent != nil {
		w.OnEvent(ev)
	}
}

func (w *Watcher) hiddenPath(path string) bool {
	rel, err := filepath.Rel(w.cfg.Root, path)
	if err != nil {
		return isHidden(filepath.Base(path))
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if isHidden(part) {
			return true
		}
	}
	return false
}

func isHidden(name string) bool {
	return len(name) > 1 && strings.HasPrefix(name, ".") && name != ".."
}
