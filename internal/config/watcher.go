package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// DefaultDebounce is how long the config file must stay quiet before it is
// reloaded. Editors often write a file in several steps.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads the config file when it changes and passes each valid
// result to a callback. Invalid edits are logged and skipped; the previous
// configuration stays in effect.
//
// The directory is watched rather than the file, so editors that replace the
// file on save are handled.
//
// After Start, the watcher owns v; callers must not use it concurrently.
type Watcher struct {
	v        *viper.Viper
	path     string
	onChange func(Config)
	logger   *slog.Logger
	debounce time.Duration

	fw   *fsnotify.Watcher
	done chan struct{}
}

// NewWatcher creates a watcher for the config file v was loaded from.
func NewWatcher(v *viper.Viper, onChange func(Config), logger *slog.Logger) (*Watcher, error) {
	path := v.ConfigFileUsed()
	if path == "" {
		return nil, fmt.Errorf("watch config: no config file in use")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch config: %w", err)
	}

	return &Watcher{
		v:        v,
		path:     abs,
		onChange: onChange,
		logger:   logger,
		debounce: DefaultDebounce,
		fw:       fw,
		done:     make(chan struct{}),
	}, nil
}

// Path returns the absolute path of the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Start begins watching.
func (w *Watcher) Start() error {
	if err := w.fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	go w.loop()
	return nil
}

// Stop closes the watcher and waits for it to exit.
func (w *Watcher) Stop() {
	w.fw.Close()
	<-w.done
}

func (w *Watcher) loop() {
	defer close(w.done)

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	var pending time.Time
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending = time.Now()
			}

		case <-ticker.C:
			if pending.IsZero() || time.Since(pending) < w.debounce {
				continue
			}
			pending = time.Time{}
			w.reload()

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watch error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	if err := w.v.ReadInConfig(); err != nil {
		w.logger.Warn("ignoring unreadable config change", "path", w.path, "error", err)
		return
	}
	cfg, err := decode(w.v)
	if err != nil {
		w.logger.Warn("ignoring invalid config change", "path", w.path, "error", err)
		return
	}
	w.logger.Info("config reloaded", "path", w.path)
	w.onChange(cfg)
}
