// Package watcher maps filesystem notifications on the knowledge base to
// ingestion pipeline calls.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Pipeline is the subset of the ingestion pipeline the watcher drives.
type Pipeline interface {
	ProcessFile(ctx context.Context, path string) (int, error)
	RemoveFile(ctx context.Context, path string) error
}

// Watcher follows a knowledge-base directory tree and dispatches each
// event as an independent unit of work so processing never blocks
// delivery of subsequent events.
type Watcher struct {
	root     string
	pipeline Pipeline
	logger   *slog.Logger
}

// New creates a watcher over root.
func New(root string, pipeline Pipeline, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{root: root, pipeline: pipeline, logger: logger}
}

// Run watches the tree until the context is cancelled; cancellation is a
// clean shutdown and returns nil. The underlying OS watch handle is
// released on return; in-flight per-file work is left to drain on its own.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := addRecursive(fsw, w.root); err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}
	w.logger.Info("watching knowledge base", "root", w.root)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("knowledge base watcher stopped")
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.dispatch(ctx, fsw, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// dispatch routes one event. Create and write both feed the update path;
// remove and rename feed the removal path. File work runs on its own
// goroutine.
func (w *Watcher) dispatch(ctx context.Context, fsw *fsnotify.Watcher, event fsnotify.Event) {
	path := event.Name
	if isHidden(path) {
		return
	}

	switch {
	case event.Op.Has(fsnotify.Create):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			// New subdirectory: fsnotify watches are not recursive.
			if err := addRecursive(fsw, path); err != nil {
				w.logger.Warn("failed to watch new directory", "path", path, "error", err)
			}
			return
		}
		w.processAsync(ctx, path)
	case event.Op.Has(fsnotify.Write):
		w.processAsync(ctx, path)
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		go func() {
			if err := w.pipeline.RemoveFile(ctx, path); err != nil {
				w.logger.Error("failed to remove file from index", "path", path, "error", err)
			}
		}()
	}
}

func (w *Watcher) processAsync(ctx context.Context, path string) {
	go func() {
		if _, err := w.pipeline.ProcessFile(ctx, path); err != nil {
			w.logger.Error("failed to process file", "path", path, "error", err)
		}
	}()
}

// addRecursive registers root and every subdirectory with the watcher.
func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}

func isHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}
