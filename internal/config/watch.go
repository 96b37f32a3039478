package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tiacalc/tiacalc/pkg/logx"
)

// reloadDelay coalesces the burst of events one save produces (truncate,
// write, chmod) into a single reload.
const reloadDelay = 100 * time.Millisecond

// Watch reloads the config at path whenever it changes and hands each valid
// result to onChange. It runs until ctx is cancelled.
//
// The parent directory is watched rather than the file itself, so saves that
// write a temporary file and rename it over path are picked up as well as
// in-place writes. A reload that fails to load or validate is logged and
// skipped; the caller keeps its previous config.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	target := filepath.Clean(path)
	if _, err := os.Stat(target); err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}

	slog.Info("config: watching for changes", "path", target)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
				pending = time.After(reloadDelay)
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				// The replacement shows up as a Create on the same name.
				slog.Debug("config: file moved away, waiting for replacement", "path", target)
			}

		case <-pending:
			pending = nil
			reload(target, onChange)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", logx.Error(err))
		}
	}
}

func reload(path string, onChange func(*Config)) {
	cfg, err := Load(path)
	if err != nil {
		slog.Error("config: reload failed, keeping previous config",
			"path", path, logx.Error(err))
		return
	}
	slog.Info("config: reloaded", "path", path)
	onChange(cfg)
}
