package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-post/common"
	"github.com/fsnotify/fsnotify"
)

// Watch reloads the settings file whenever it changes and hands every valid result to fn. A file
// that fails to load is logged and skipped, so the last good config stays in effect. Blocks until
// ctx is done.
//
// The parent directory is watched rather than the file so editors that save by rename are seen.
//
// Parameters:
//   - ctx: cancels the watch
//   - path: the settings file
//   - fn: called on the watching goroutine with each reloaded config
//
// Returns:
//   - error: a watcher setup error, or nil once ctx is done
func Watch(ctx context.Context, path string, fn func(*Config)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("config: watch %s: %w", path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			cfg, err := Load(abs)
			if err != nil {
				common.Logger().Warn("config reload rejected", "path", abs, "error", err)
				continue
			}
			common.Logger().Info("config reloaded", "path", abs)
			fn(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			common.Logger().Warn("config watcher error", "path", abs, "error", err)
		}
	}
}
