package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/mimir/internal/identity"
	"github.com/starford/mimir/internal/parser"
	"github.com/starford/mimir/internal/storage"
)

// Watch starts an fsnotify watcher on the flashcards folder and keeps the
// card index in step with edits until ctx is cancelled. Remote sync is
// never triggered from here; the watcher only maintains local state.
//
// New directories created at runtime are automatically added to the watch
// list. Rename events trigger a reconciliation pass that removes stale
// index entries whose files no longer exist on disk.
func Watch(ctx context.Context, db *DB, store storage.Provider, p *parser.Parser, vaultRoot, folder string, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	watchRoot := filepath.Join(vaultRoot, folder)
	if err := addDirsRecursive(w, watchRoot); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", watchRoot))

	// reconcileTimer debounces rename reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			if err := Sync(db, store, p, folder, logger); err != nil {
				logger.Warn("watcher: reconcile failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			// New directories join the watch list immediately.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					}
					indexNewDir(db, store, p, vaultRoot, absPath, logger)
					continue
				}
			}

			// Only process .md files from here on.
			if !strings.HasSuffix(absPath, ".md") {
				continue
			}

			rel, relErr := filepath.Rel(vaultRoot, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := store.Read(rel)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", readErr.Error()))
					continue
				}
				if idxErr := indexDocument(db, p, rel, identity.ContentHash(data), data); idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", idxErr.Error()))
					continue
				}
				logger.Debug("watcher: indexed", slog.String("path", rel))

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.DeleteFile(rel); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("path", rel))

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the OLD path only; the new
				// path arrives as a separate Create event. Delete the
				// old entry now and schedule a reconciliation pass for
				// stragglers.
				if delErr := db.DeleteFile(rel); delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
				} else {
					logger.Debug("watcher: rename old deleted", slog.String("path", rel))
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// indexNewDir indexes any .md files found in a newly created directory.
func indexNewDir(db *DB, store storage.Provider, p *parser.Parser, vaultRoot, dirPath string, logger *slog.Logger) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		rel, relErr := filepath.Rel(vaultRoot, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		data, readErr := store.Read(rel)
		if readErr != nil {
			return nil
		}
		if idxErr := indexDocument(db, p, rel, identity.ContentHash(data), data); idxErr == nil {
			logger.Debug("watcher: indexed from new dir", slog.String("path", rel))
		}
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
