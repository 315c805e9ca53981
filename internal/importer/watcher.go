package importer

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/lumina/internal/storage"
)

// reconcileDelay debounces the full pass that follows a rename.
const reconcileDelay = 200 * time.Millisecond

// Watch keeps the store in sync with file changes until ctx is cancelled.
//
// New directories created at runtime are added to the watch list. Rename
// events trigger a debounced Sync so that the old path is dropped and the
// new one imported.
func (im *Importer) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := im.store.Root()
	if err := addDirsRecursive(w, root); err != nil {
		return err
	}
	im.logger.Info("watcher: started", slog.String("root", root))

	var (
		reconcileTimer *time.Timer
		reconcileCh    <-chan time.Time
	)
	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			im.logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			if _, err := im.Sync(ctx); err != nil {
				im.logger.Warn("watcher: reconcile failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if strings.HasPrefix(filepath.Base(ev.Name), ".") {
						continue
					}
					if err := addDirsRecursive(w, ev.Name); err != nil {
						im.logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", err.Error()))
					}
					// Files may have landed before the watch was added.
					scheduleReconcile()
					continue
				}
			}

			if !storage.IsMarkdown(ev.Name) {
				continue
			}
			rel, err := filepath.Rel(root, ev.Name)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				if err := im.importPath(ctx, rel); err != nil {
					im.logger.Warn("watcher: import failed", slog.String("path", rel), slog.String("error", err.Error()))
					continue
				}
				im.logger.Debug("watcher: imported", slog.String("path", rel))

			case ev.Op&fsnotify.Remove != 0:
				if err := im.notes.RemoveImported(ctx, rel); err != nil {
					im.logger.Debug("watcher: remove skipped", slog.String("path", rel), slog.String("error", err.Error()))
					continue
				}
				im.logger.Debug("watcher: removed", slog.String("path", rel))

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify reports Rename on the old path only; the new
				// path shows up as a Create if it stays under the root.
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			im.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and its non-hidden subdirectories to the
// watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}
