// Package watch rebuilds the catalog when the content directory changes.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDelay is how long the watcher waits for a burst of events to
// settle before rebuilding.
const DefaultDelay = 200 * time.Millisecond

// Rebuilder is what the watcher drives; workspace.Service satisfies it.
type Rebuilder interface {
	Rebuild(ctx context.Context) error
}

// Option configures Watch.
type Option func(*watcher)

// WithDelay sets the debounce delay.
func WithDelay(d time.Duration) Option {
	return func(w *watcher) {
		w.delay = d
	}
}

// WithIgnore skips events for which fn returns true. fn gets the absolute
// OS path.
func WithIgnore(fn func(path string) bool) Option {
	return func(w *watcher) {
		w.ignore = fn
	}
}

type watcher struct {
	delay  time.Duration
	ignore func(string) bool
}

// Watch watches root and every directory below it until ctx is cancelled.
// Each burst of create, write, remove or rename events triggers one
// Rebuild. Directories created at runtime are added to the watch list.
func Watch(ctx context.Context, root string, r Rebuilder, logger *slog.Logger, opts ...Option) error {
	cfg := watcher{delay: DefaultDelay}
	for _, opt := range opts {
		opt(&cfg)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(cfg.delay)
			fire = timer.C
		} else {
			timer.Reset(cfg.delay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			if err := r.Rebuild(ctx); err != nil {
				logger.Warn("watcher: rebuild failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if cfg.ignore != nil && cfg.ignore(ev.Name) {
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", ev.Name))
					}
				}
			}

			logger.Debug("watcher: change", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
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
