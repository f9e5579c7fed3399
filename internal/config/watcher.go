package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates cache entries when entity files change on disk, so
// external edits (editor tooling, deploys) take effect without a restart.
type Watcher struct {
	store   *Store
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Watch starts watching the store's content root. Entity directories that
// appear later are picked up as their parents emit create events.
func (s *Store) Watch() (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{store: s, watcher: fw, done: make(chan struct{})}
	if err := w.addRecursive(s.root); err != nil {
		fw.Close()
		return nil, err
	}

	go w.run()
	return w, nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
		}
		return nil
	})
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.store.logger.Warn("content watch error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.watcher.Add(event.Name)
			return
		}
	}
	if !strings.HasSuffix(event.Name, ".yml") {
		return
	}

	rel, err := filepath.Rel(w.store.root, event.Name)
	if err != nil {
		return
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 3 {
		return
	}

	w.store.Invalidate(parts[0], parts[1])
	w.store.logger.Info("config cache invalidated by file change",
		"entity", parts[0]+"/"+parts[1], "file", parts[2], "op", event.Op.String())
}

func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
