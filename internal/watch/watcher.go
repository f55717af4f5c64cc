// Package watch re-runs rewrites when PHP sources change on disk.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/astrw/internal/batch"
	"github.com/standardbeagle/astrw/internal/config"
	"github.com/standardbeagle/astrw/internal/debug"
	"github.com/standardbeagle/astrw/pkg/pathutil"
)

// Batch is one debounced set of changes, as slash-separated paths relative to the root
type Batch struct {
	Changed []string
	Removed []string
}

// Len returns the number of paths in the batch
func (b Batch) Len() int {
	return len(b.Changed) + len(b.Removed)
}

// Handler receives debounced batches. It runs on the watcher's goroutine, so events
// arriving meanwhile are collected into the next batch.
type Handler func(ctx context.Context, b Batch)

type eventType int

const (
	eventChanged eventType = iota
	eventRemoved
)

// Watcher monitors a project tree and hands debounced batches to a Handler
type Watcher struct {
	watcher     *fsnotify.Watcher
	root        string
	matcher     *batch.Matcher
	maxFileSize int64
	debounce    time.Duration
	handler     Handler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	pending map[string]eventType

	batches    int64
	events     int64
	errorCount int64
	lastBatch  time.Time
	statsMu    sync.RWMutex
}

// New creates a watcher for cfg's project root
func New(cfg *config.Config, matcher *batch.Matcher, handler Handler) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	debounce := time.Duration(cfg.Watch.DebounceMs) * time.Millisecond
	if debounce <= 0 {
		debounce = time.Duration(config.DefaultWatchDebounceMs) * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		watcher:     fsw,
		root:        cfg.Project.Root,
		matcher:     matcher,
		maxFileSize: cfg.Processing.MaxFileSize,
		debounce:    debounce,
		handler:     handler,
		ctx:         ctx,
		cancel:      cancel,
		pending:     make(map[string]eventType),
	}, nil
}

// Start adds watches below the root and begins processing events
func (w *Watcher) Start() error {
	debug.LogBatch("Starting file watcher for directory: %s\n", w.root)

	if err := w.addWatches(w.root, false); err != nil {
		return fmt.Errorf("failed to add watches starting from %s: %w", w.root, err)
	}

	w.wg.Add(1)
	go w.processEvents()
	return nil
}

// Stop ends watching and waits for an in-flight batch to finish. Pending events
// are dropped.
func (w *Watcher) Stop() error {
	w.cancel()
	err := w.watcher.Close()
	w.wg.Wait()
	debug.LogBatch("File watcher stopped\n")
	return err
}

// addWatches watches dir and every directory below it the matcher doesn't prune.
// With enqueue set, files already present are queued as changed; a directory created
// while watching may be populated before its watch exists.
func (w *Watcher) addWatches(dir string, enqueue bool) error {
	visitedDirs := make(map[string]bool)

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel := w.rel(path)

		if !d.IsDir() {
			if enqueue && w.selected(path, rel) {
				w.pending[rel] = eventChanged
			}
			return nil
		}

		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return filepath.SkipDir
		}
		if visitedDirs[realPath] {
			return filepath.SkipDir
		}
		visitedDirs[realPath] = true

		if w.matcher.PruneDir(rel) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			log.Printf("Warning: failed to add watch for %s: %v", path, err)
		}
		return nil
	})
}

func (w *Watcher) rel(path string) string {
	return pathutil.ToRelative(path, w.root)
}

// selected reports whether an existing file should be rewritten
func (w *Watcher) selected(path, rel string) bool {
	if !w.matcher.Match(rel) {
		return false
	}
	if w.maxFileSize > 0 {
		if info, err := os.Stat(path); err == nil && info.Size() > w.maxFileSize {
			debug.LogBatch("FileWatcher: skipping oversized file %s (%d bytes > %d limit)\n", path, info.Size(), w.maxFileSize)
			return false
		}
	}
	return true
}

// processEvents owns the pending set and the debounce timer
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.handleEvent(event) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.incrementStats(0, 0, 1)
			log.Printf("File watcher error: %v", err)

		case <-timer.C:
			w.flush()
		}
	}
}

// handleEvent records one event and reports whether anything became pending
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	path := event.Name
	rel := w.rel(path)
	debug.LogBatch("FileWatcher: received event %v for path %s\n", event.Op, rel)

	info, err := os.Stat(path)
	if err != nil {
		if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 && w.matcher.Match(rel) {
			w.pending[rel] = eventRemoved
			return true
		}
		return false
	}

	if info.IsDir() {
		if event.Op&fsnotify.Create == 0 || w.matcher.PruneDir(rel) {
			return false
		}
		before := len(w.pending)
		if err := w.addWatches(path, true); err != nil {
			log.Printf("Warning: failed to watch new directory %s: %v", path, err)
		}
		return len(w.pending) != before
	}

	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}
	if !w.selected(path, rel) {
		return false
	}
	w.pending[rel] = eventChanged
	return true
}

func (w *Watcher) flush() {
	if len(w.pending) == 0 {
		return
	}

	var b Batch
	for rel, kind := range w.pending {
		if kind == eventRemoved {
			b.Removed = append(b.Removed, rel)
		} else {
			b.Changed = append(b.Changed, rel)
		}
	}
	w.pending = make(map[string]eventType)
	sort.Strings(b.Changed)
	sort.Strings(b.Removed)

	debug.LogBatch("Processing %d debounced file events\n", b.Len())
	w.incrementStats(1, int64(b.Len()), 0)
	w.handler(w.ctx, b)
}

func (w *Watcher) incrementStats(batches, events, errors int64) {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()

	w.batches += batches
	w.events += events
	w.errorCount += errors
	if batches > 0 {
		w.lastBatch = time.Now()
	}
}

// Stats returns watch statistics
func (w *Watcher) Stats() Stats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()

	return Stats{
		Batches:         w.batches,
		EventsProcessed: w.events,
		ErrorCount:      w.errorCount,
		LastBatchTime:   w.lastBatch,
		IsActive:        w.ctx.Err() == nil,
	}
}

// Stats contains statistics about watching
type Stats struct {
	Batches         int64
	EventsProcessed int64
	ErrorCount      int64
	LastBatchTime   time.Time
	IsActive        bool
}
