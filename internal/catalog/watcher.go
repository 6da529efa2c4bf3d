package catalog

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 200 * time.Millisecond

// ChangeCallback is called after a watcher-driven reload changed the snapshot.
type ChangeCallback func(sum string, count int)

// Watch reloads c whenever the file at path changes, until ctx is cancelled.
//
// The parent directory is watched rather than the file so that editors
// replacing the file through a rename are still picked up. Bursts of events
// are debounced into one reload. A failed reload is logged and the previous
// snapshot stays in place.
func Watch(ctx context.Context, c *Catalog, path string, logger *slog.Logger, cb ChangeCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.Info("catalog watcher: started", slog.String("path", abs))

	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(reloadDebounce)
			timerCh = timer.C
			return
		}
		timer.Reset(reloadDebounce)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("catalog watcher: stopped")
			return nil

		case <-timerCh:
			changed, err := c.Reload(ctx)
			if err != nil {
				logger.Warn("catalog watcher: reload failed", slog.String("error", err.Error()))
				continue
			}
			if !changed {
				logger.Debug("catalog watcher: content unchanged")
				continue
			}
			count := len(c.Reports())
			logger.Info("catalog watcher: reloaded", slog.Int("reports", count))
			if cb != nil {
				cb(c.Checksum(), count)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			schedule()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("catalog watcher: error", slog.String("error", err.Error()))
		}
	}
}
