package framefeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"wavebars/internal/logging"
	"wavebars/internal/pipeline"
	"wavebars/internal/services"
)

// WatchOption customizes Watch.
type WatchOption func(*watcher)

// WithLogger routes watcher diagnostics to logger.
func WithLogger(logger *slog.Logger) WatchOption {
	return func(w *watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithLockWait makes Watch wait up to d for a run to create the clip lock when
// none exists at start. Without it Watch reports the frames already on disk
// and returns.
func WithLockWait(d time.Duration) WatchOption {
	return func(w *watcher) {
		if d > 0 {
			w.lockWait = d
		}
	}
}

// Watch reports frames of clipID as they appear in dir, in index order. Temp
// files are skipped; a frame is reported only once every lower index has been.
// Watch returns nil when the clip's lock file is removed (the run finished) or
// is absent once existing frames are reported, ctx.Err() when ctx ends, or the
// first error from fn.
func Watch(ctx context.Context, dir, clipID string, fn func(pipeline.Frame) error, opts ...WatchOption) error {
	if fn == nil {
		return fmt.Errorf("framefeed: callback is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	w := &watcher{
		dir:     dir,
		clipID:  clipID,
		fn:      fn,
		pending: make(map[int]string),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return services.Wrap(services.ErrIO, "watch", "create watcher", dir, err)
	}
	defer fw.Close()
	if err := fw.Add(dir); err != nil {
		return services.Wrap(services.ErrIO, "watch", "watch directory", dir, err)
	}

	// Frames committed before the watch was registered.
	if err := w.scan(); err != nil {
		return err
	}

	// The watch is registered, so a lock removed after this stat still
	// produces an event.
	lockName := clipID + ".lock"
	locked, err := lockExists(filepath.Join(dir, lockName))
	if err != nil {
		return err
	}
	var waitC <-chan time.Time
	if !locked {
		if w.lockWait <= 0 {
			w.logger.Debug("clip not locked", logging.String("clip_id", clipID))
			return nil
		}
		timer := time.NewTimer(w.lockWait)
		defer timer.Stop()
		waitC = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-waitC:
			w.logger.Debug("no run locked the clip", logging.String("clip_id", clipID),
				logging.Duration("waited", w.lockWait))
			return w.scan()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(event.Name)
			switch {
			case event.Has(fsnotify.Create) && name == lockName:
				waitC = nil
			case event.Has(fsnotify.Remove) && name == lockName:
				w.logger.Debug("clip lock released", logging.String("clip_id", clipID))
				return w.scan()
			case event.Has(fsnotify.Create) || event.Has(fsnotify.Rename):
				if err := w.add(event.Name); err != nil {
					return err
				}
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("frame watcher error", logging.Error(err))
		}
	}
}

type watcher struct {
	dir      string
	clipID   string
	fn       func(pipeline.Frame) error
	next     int
	pending  map[int]string
	logger   *slog.Logger
	lockWait time.Duration
}

func lockExists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, services.Wrap(services.ErrIO, "watch", "stat lock", path, err)
	}
}

func (w *watcher) scan() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return services.Wrap(services.ErrIO, "watch", "scan", w.dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := w.add(filepath.Join(w.dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (w *watcher) add(path string) error {
	idx, ok := pipeline.ParseFrameName(w.clipID, filepath.Base(path))
	if !ok || idx < w.next {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		// Renamed away or removed before we got to it.
		return nil
	}
	w.pending[idx] = path
	for {
		p, ok := w.pending[w.next]
		if !ok {
			return nil
		}
		delete(w.pending, w.next)
		if err := w.fn(pipeline.Frame{ClipID: w.clipID, Index: w.next, Path: p}); err != nil {
			return err
		}
		w.next++
	}
}
