package stream

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Harsh-BH/baywatch/internal/domain"
)

// pollInterval is used when no filesystem watch could be established.
const pollInterval = 200 * time.Millisecond

// manifestWatcher waits for a manifest file to appear in the output directory.
// It must be created before the transcoder is launched so no event is missed.
type manifestWatcher struct {
	w      *fsnotify.Watcher
	logger *zap.Logger
}

func newManifestWatcher(dir string, logger *zap.Logger) *manifestWatcher {
	mw := &manifestWatcher{logger: logger}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("fsnotify unavailable, polling for manifest", zap.Error(err))
		return mw
	}
	if err := w.Add(dir); err != nil {
		logger.Warn("Failed to watch output dir, polling for manifest",
			zap.String("dir", dir),
			zap.Error(err),
		)
		_ = w.Close()
		return mw
	}
	mw.w = w
	return mw
}

// Wait blocks until manifest exists, the process exits, or timeout elapses.
func (mw *manifestWatcher) Wait(ctx context.Context, manifest string, exited <-chan struct{}, timeout time.Duration) error {
	if ready(manifest) {
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var (
		events <-chan fsnotify.Event
		errs   <-chan error
		tick   <-chan time.Time
	)
	if mw.w != nil {
		events = mw.w.Events
		errs = mw.w.Errors
	} else {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) != filepath.Clean(manifest) {
				continue
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Rename) {
				if ready(manifest) {
					return nil
				}
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			// Fall back to polling once the watch is unreliable.
			mw.logger.Warn("Manifest watch error, polling instead", zap.Error(err))
			events, errs = nil, nil
			if tick == nil {
				ticker := time.NewTicker(pollInterval)
				defer ticker.Stop()
				tick = ticker.C
			}
		case <-tick:
			if ready(manifest) {
				return nil
			}
		case <-exited:
			if ready(manifest) {
				return nil
			}
			return fmt.Errorf("%w: transcoder exited before producing a manifest", domain.ErrStreamUnavailable)
		case <-timer.C:
			if ready(manifest) {
				return nil
			}
			return fmt.Errorf("%w after %s", domain.ErrStreamStartTimeout, timeout)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (mw *manifestWatcher) Close() {
	if mw.w != nil {
		_ = mw.w.Close()
	}
}

func ready(manifest string) bool {
	info, err := os.Stat(manifest)
	return err == nil && !info.IsDir()
}
