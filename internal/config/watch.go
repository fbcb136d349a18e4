package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// reloadDelay collapses the burst of events a single save produces.
const reloadDelay = 50 * time.Millisecond

// Watch reloads path whenever it is written and hands each valid config to
// onChange. Invalid edits are logged and skipped, as are reads that find the
// file empty mid-save. The parent directory is watched so editors that
// replace the file on save still trigger a reload.
func Watch(ctx context.Context, path string, log *zap.Logger, onChange func(*Config)) error {
	if log == nil {
		log = zap.NewNop()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: create watcher: %w", err)
	}
	defer watcher.Close()

	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("config: watch %s: %w", path, err)
	}

	timer := time.NewTimer(reloadDelay)
	timer.Stop()
	defer timer.Stop()
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, _ := filepath.Abs(event.Name)
			if name != target || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			timer.Reset(reloadDelay)
			pending = timer.C
		case <-pending:
			pending = nil
			if cfg := reload(target, log); cfg != nil {
				onChange(cfg)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("config watcher error", zap.Error(err))
		}
	}
}

func reload(path string, log *zap.Logger) *Config {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("ignoring config change", zap.String("path", path), zap.Error(err))
		return nil
	}
	if len(data) == 0 {
		log.Debug("config file empty, waiting for the rest of the save", zap.String("path", path))
		return nil
	}
	cfg, err := parse(path, data)
	if err != nil {
		log.Warn("ignoring config change", zap.String("path", path), zap.Error(err))
		return nil
	}
	log.Info("config reloaded", zap.String("path", path))
	return cfg
}
