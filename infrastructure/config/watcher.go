package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	domainconfig "github.com/YagmurCemGul/boltinsight-production-sub002/domain/config"
)

// Watcher reloads a configuration file when it changes on disk.
type Watcher struct {
	path     string
	loader   *Loader
	onChange func(*domainconfig.AppConfig)
	onError  func(error)
}

// NewWatcher creates a watcher for path. onChange receives every
// configuration that loads and validates; onError receives load failures
// and may be nil.
func NewWatcher(path string, loader *Loader, onChange func(*domainconfig.AppConfig), onError func(error)) *Watcher {
	if loader == nil {
		loader = NewLoader()
	}
	if onError == nil {
		onError = func(error) {}
	}
	return &Watcher{path: path, loader: loader, onChange: onChange, onError: onError}
}

// Run watches until ctx is cancelled. The directory is watched rather than
// the file so that editors replacing the file are observed.
func (w *Watcher) Run(ctx context.Context) error {
	absPath, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := w.loader.LoadFile(absPath)
			if err != nil {
				w.onError(err)
				continue
			}
			w.onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.onError(err)
		}
	}
}
