// Package watch observes the export file and re-runs conversion on change.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce coalesces bursts of filesystem events into one rebuild.
const debounce = 200 * time.Millisecond

// Watcher triggers onChange when any watched path is written, created,
// renamed or removed. Events arriving within the debounce window are
// coalesced.
type Watcher struct {
	fs       *fsnotify.Watcher
	logger   *slog.Logger
	onChange func()
}

// New creates a watcher over the given paths. Directories are watched
// directly; for files the containing directory is watched so editors that
// replace files by rename are still seen.
func New(paths []string, onChange func(), logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{fs: fsw, logger: logger, onChange: onChange}

	for _, p := range paths {
		target := p
		if info, err := os.Stat(p); err != nil || !info.IsDir() {
			target = filepath.Dir(p)
		}
		if err := fsw.Add(target); err != nil {
			_ = fsw.Close()
			return nil, err
		}
		logger.Debug("watching", slog.String("path", target))
	}
	return w, nil
}

// Run processes events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fs.Close() }()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			w.logger.Debug("change detected",
				slog.String("path", ev.Name),
				slog.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", slog.String("error", err.Error()))
		case <-fire:
			timer = nil
			fire = nil
			w.onChange()
		}
	}
}
