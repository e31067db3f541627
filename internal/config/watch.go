package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the config file when it changes on disk.
type Watcher struct {
	Path     string
	Cooldown time.Duration
	Logger   *zap.Logger
}

// Run watches the file's directory (editors often replace files by rename)
// and calls onUpdate with every config that loads and validates.
// Blocks until ctx is cancelled.
func (w Watcher) Run(ctx context.Context, onUpdate func(*Config)) error {
	if w.Logger == nil {
		w.Logger = zap.NewNop()
	}
	if w.Cooldown <= 0 {
		w.Cooldown = 500 * time.Millisecond
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(w.Path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				pending = time.After(w.Cooldown)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.Logger.Warn("config watcher error", zap.Error(err))
		case <-pending:
			pending = nil
			cfg, err := Load(w.Path)
			if err == nil {
				err = cfg.Validate()
			}
			if err != nil {
				w.Logger.Warn("config reload rejected", zap.String("path", w.Path), zap.Error(err))
				continue
			}
			w.Logger.Info("config reloaded", zap.String("path", w.Path))
			onUpdate(cfg)
		}
	}
}
