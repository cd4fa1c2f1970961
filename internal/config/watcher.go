package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watcher reloads the config file on change and delivers immutable snapshots.
//
// Editors often replace files via rename, so the watch is placed on the parent
// directory and filtered by name. Bursts of write events are debounced before
// reloading.
type Watcher struct {
	path    string
	fsw     *fsnotify.Watcher
	updates chan *Config
}

// Watch starts watching path and returns a Watcher whose Updates channel
// carries each successfully reloaded snapshot. Invalid intermediate states
// (half-written files) are logged and skipped, never delivered.
func Watch(ctx context.Context, path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	w := &Watcher{
		path:    path,
		fsw:     fsw,
		updates: make(chan *Config, 1),
	}
	go w.run(ctx)
	return w, nil
}

// Updates returns the snapshot stream. The channel is closed when the watcher
// stops.
func (w *Watcher) Updates() <-chan *Config {
	return w.updates
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.updates)

	const debounce = 200 * time.Millisecond
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != filepath.Base(w.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("config watcher error")
		case <-timerC:
			timer = nil
			timerC = nil
			cfg, err := Load(w.path)
			if err != nil {
				log.Warn().Err(err).Str("path", w.path).Msg("config reload skipped")
				continue
			}
			log.Info().Str("provider", cfg.Provider).Msg("config reloaded")
			// Drop stale pending snapshot so the consumer always sees the latest.
			select {
			case <-w.updates:
			default:
			}
			select {
			case w.updates <- cfg:
			case <-ctx.Done():
				return
			}
		}
	}
}
