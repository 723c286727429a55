package persist

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc is called when another process has rewritten a collection.
type ReloadFunc func(c Collection)

const debounce = 100 * time.Millisecond

// Watch observes the adapter's storage directory until ctx is cancelled and
// calls fn for each collection whose file now differs from what the adapter
// last read or wrote. Bursts of events for the same file are debounced.
func Watch(ctx context.Context, a *Adapter, logger *slog.Logger, fn ReloadFunc) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := a.Root()
	if err := w.Add(root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	pending := make(map[Collection]struct{})
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
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

		case <-timerCh:
			for c := range pending {
				delete(pending, c)
				data, readErr := a.store.Read(c.Key())
				if readErr != nil {
					logger.Debug("watcher: read failed", slog.String("collection", string(c)), slog.String("error", readErr.Error()))
					continue
				}
				if !a.Changed(c, data) {
					continue
				}
				logger.Debug("watcher: external change", slog.String("collection", string(c)))
				fn(c)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			c, known := collectionForKey(filepath.Base(ev.Name))
			if !known {
				continue
			}
			pending[c] = struct{}{}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
