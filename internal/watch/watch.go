// Package watch re-runs an action when a file changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period after the last change before the action runs.
const DefaultDebounce = 5 * time.Second

// Watcher observes a single file. The parent directory is watched because
// the source application replaces the file rather than writing it in place.
type Watcher struct {
	Path     string
	Debounce time.Duration
	Logger   *zap.Logger
}

// Run calls fn once immediately and then once per burst of changes to Path,
// until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context)) error {
	logger := w.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	target := filepath.Clean(w.Path)
	if err := fsw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}

	fn(ctx)

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("cache changed", zap.String("op", event.Op.String()))
			fire = time.After(debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))
		case <-fire:
			fire = nil
			fn(ctx)
		}
	}
}
