// Package watcher auto-ingests PDFs dropped into watched directories.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Writes for a large PDF arrive as a burst of events; the debounce collapses
// them into a single ingest once the file has settled.
const settleDelay = 500 * time.Millisecond

// IngestFunc is called with the path of a PDF that appeared or changed.
type IngestFunc func(path string)

// Watcher monitors directories for PDF files and triggers ingestion. Removal
// events are ignored: the chunk store is additive and dropping a file from a
// watched directory does not unindex it.
type Watcher struct {
	roots     []string
	recursive bool
	onPDF     IngestFunc
	logger    *zap.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	pending map[string]*time.Timer
	started bool
	done    chan struct{}
	stop    sync.Once
}

// New creates a watcher over roots. Missing roots are created on Start.
func New(roots []string, recursive bool, onPDF IngestFunc, logger *zap.Logger) *Watcher {
	return &Watcher{
		roots:     roots,
		recursive: recursive,
		onPDF:     onPDF,
		logger:    logger,
		pending:   make(map[string]*time.Timer),
		done:      make(chan struct{}),
	}
}

// Start begins watching and returns. The watcher runs until ctx is cancelled
// or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.fsw = fsw
	w.started = true
	for _, root := range w.roots {
		if err := w.addRootLocked(root); err != nil {
			_ = fsw.Close()
			w.fsw = nil
			w.started = false
			w.mu.Unlock()
			return err
		}
	}
	w.mu.Unlock()

	w.logger.Info("watching for PDFs",
		zap.Strings("directories", w.roots),
		zap.Bool("recursive", w.recursive),
	)
	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Warn("watch error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) {
		return
	}
	info, err := os.Stat(ev.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if w.recursive {
			w.watchSubtree(ev.Name)
		}
		return
	}
	if !isPDF(ev.Name) {
		return
	}
	w.scheduleIngest(ev.Name)
}

// scheduleIngest (re)arms the settle timer for path; the ingest callback fires
// once the file stops changing.
func (w *Watcher) scheduleIngest(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(settleDelay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.logger.Debug("ingesting watched file", zap.String("path", path))
		w.onPDF(path)
	})
}

// SyncExisting ingests PDFs already present in the watched roots. Call after
// Start to pick up files that predate the watcher.
func (w *Watcher) SyncExisting() {
	for _, root := range w.roots {
		filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			if !w.recursive && filepath.Dir(path) != filepath.Clean(root) {
				return nil
			}
			if isPDF(path) {
				w.onPDF(path)
			}
			return nil
		})
	}
}

// Stop stops watching and cancels pending ingests.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.fsw == nil {
		w.mu.Unlock()
		return
	}
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	_ = w.fsw.Close()
	w.fsw = nil
	w.started = false
	w.mu.Unlock()
	w.stop.Do(func() { close(w.done) })
}

func (w *Watcher) addRootLocked(root string) error {
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0755); err != nil {
		return err
	}
	if !w.recursive {
		return w.fsw.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
}

// watchSubtree adds a directory that appeared after Start, plus any nested
// directories, and ingests PDFs already inside it.
func (w *Watcher) watchSubtree(dir string) {
	w.mu.Lock()
	fsw := w.fsw
	w.mu.Unlock()
	if fsw == nil {
		return
	}
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if addErr := fsw.Add(path); addErr != nil {
				w.logger.Warn("failed to watch directory", zap.String("path", path), zap.Error(addErr))
			}
			return nil
		}
		if isPDF(path) {
			w.scheduleIngest(path)
		}
		return nil
	})
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
