package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounceDelay = 300 * time.Millisecond

// Watcher reloads the YAML config file when it changes and applies the log
// level to the running logger. Other settings are handed to OnChange
// callbacks; most of them only take effect on restart.
type Watcher struct {
	path      string
	level     zap.AtomicLevel
	logger    *zap.Logger
	fsWatcher *fsnotify.Watcher

	mu        sync.RWMutex
	current   *Config
	callbacks []func(*Config)

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// NewWatcher starts watching cfg.File. The directory is watched rather than
// the file so editors that replace the file on save are handled.
func NewWatcher(cfg *Config, level zap.AtomicLevel, logger *zap.Logger) (*Watcher, error) {
	if cfg.File == "" {
		return nil, fmt.Errorf("config was not loaded from a file")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsWatcher.Add(filepath.Dir(cfg.File)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", cfg.File, err)
	}

	w := &Watcher{
		path:      filepath.Clean(cfg.File),
		level:     level,
		logger:    logger,
		fsWatcher: fsWatcher,
		current:   cfg,
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
	go w.loop()

	logger.Info("Configuration hot reloading enabled", zap.String("file", w.path))
	return w, nil
}

// Current returns the latest valid configuration
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback run after each successful reload
func (w *Watcher) OnChange(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Stop ends the watch loop and waits for it
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.done
}

func (w *Watcher) loop() {
	defer close(w.done)
	defer w.fsWatcher.Close()

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, w.reload)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))

		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) reload() {
	next, err := LoadFile(w.path)
	if err != nil {
		w.logger.Error("Invalid configuration after reload, keeping the previous one", zap.Error(err))
		return
	}

	w.mu.Lock()
	prev := w.current
	w.current = next
	callbacks := append([]func(*Config){}, w.callbacks...)
	w.mu.Unlock()

	if next.LogLevel != prev.LogLevel {
		if lvl, err := ParseLevel(next.LogLevel); err == nil {
			w.level.SetLevel(lvl)
			w.logger.Info("Log level changed", zap.String("from", prev.LogLevel), zap.String("to", next.LogLevel))
		}
	}

	for _, fn := range callbacks {
		fn(next)
	}
	w.logger.Info("Configuration reloaded", zap.Int("callbacks_notified", len(callbacks)))
}
