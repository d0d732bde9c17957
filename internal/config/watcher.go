package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/commerceapi/internal/logfields"
)

// Watcher monitors a configuration file and hands every valid new version to
// a reload callback. Invalid versions are logged and skipped.
type Watcher struct {
	configPath string
	watcher    *fsnotify.Watcher
	debounce   time.Duration
	onReload   func(*Config)
	logger     *slog.Logger

	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

// NewWatcher creates a watcher for configPath. Rapid successive changes are
// collapsed into one reload after debounce.
func NewWatcher(configPath string, debounce time.Duration, logger *slog.Logger, onReload func(*Config)) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		configPath: absPath,
		watcher:    fw,
		debounce:   debounce,
		onReload:   onReload,
		logger:     logger,
		stopChan:   make(chan struct{}),
		done:       make(chan struct{}),
	}, nil
}

// Start begins monitoring. The directory is watched rather than the file so
// editors that replace the file on save are picked up.
func (w *Watcher) Start(ctx context.Context) error {
	configDir := filepath.Dir(w.configPath)
	if err := w.watcher.Add(configDir); err != nil {
		return fmt.Errorf("failed to watch config directory %s: %w", configDir, err)
	}
	w.logger.Info("Starting configuration watcher", "config_path", w.configPath)
	go w.loop(ctx)
	return nil
}

// Stop ends monitoring and waits for the watch loop to exit.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopChan)
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	configFile := filepath.Base(w.configPath)
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configFile {
				continue
			}
			if event.Has(fsnotify.Remove) {
				w.logger.Warn("Config file removed", "file", event.Name)
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.logger.Debug("Config file change detected", "file", event.Name, "op", event.Op.String())
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Config watcher error", logfields.Error(err))
		case <-timer.C:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.configPath)
	if err != nil {
		w.logger.Error("Configuration reload failed; keeping previous configuration", logfields.Error(err))
		return
	}
	w.logger.Info("Configuration reloaded", "config_path", w.configPath)
	if w.onReload != nil {
		w.onReload(cfg)
	}
}
