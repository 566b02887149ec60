// Package watch implements a filesystem-triggered incremental reindex
// loop: fsnotify events under a repository root are debounced and
// collapsed into a single onChange call, the same recursive-add and
// debounce-then-fire shape as the teacher's hybrid watcher, simplified to
// one backend (no polling fallback) since this package only needs to
// drive the incremental updater, not a general-purpose event stream.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits after the last detected
// change before triggering onChange, coalescing a burst of saves (an IDE
// writing several files, a branch checkout) into one reindex pass.
const DefaultDebounce = 500 * time.Millisecond

// Watch blocks, watching root (and every subdirectory not matched by
// skipDir) for filesystem changes, calling onChange once per debounce
// window after the last change. It returns when ctx is canceled or the
// watcher fails to start.
func Watch(ctx context.Context, root string, skipDir func(relPath string) bool, onChange func(), logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addRecursive(w, root, skipDir); err != nil {
		return err
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			rel, relErr := filepath.Rel(root, event.Name)
			if relErr != nil {
				rel = event.Name
			}
			rel = filepath.ToSlash(rel)
			if skipDir != nil && skipDir(rel) {
				continue
			}

			if event.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					if err := w.Add(event.Name); err != nil {
						logger.Warn("failed to watch new directory", slog.String("path", event.Name), slog.String("error", err.Error()))
					}
				}
			}

			if timer == nil {
				timer = time.AfterFunc(DefaultDebounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(DefaultDebounce)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", slog.String("error", err.Error()))

		case <-fire:
			onChange()
		}
	}
}

// addRecursive registers root and every subdirectory not rejected by
// skipDir with the watcher, so new files created inside an already-watched
// directory still surface an event.
func addRecursive(w *fsnotify.Watcher, root string, skipDir func(relPath string) bool) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)
		if rel != "." && skipDir != nil && skipDir(rel) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
