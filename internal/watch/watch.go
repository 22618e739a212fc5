// Package watch rebuilds the presentation whenever a slide file changes.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// BuildFunc runs one build and returns the written path.
type BuildFunc func(ctx context.Context) (string, error)

type Watcher struct {
	dir      string
	slides   []string
	debounce time.Duration
	build    BuildFunc
	logger   *zap.Logger

	mu     sync.Mutex
	active bool
	builds int
}

// New watches dir for changes to the named slide files. Shared stylesheets
// in dir also trigger a rebuild.
func New(dir string, slides []string, debounce time.Duration, build BuildFunc, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		dir:      dir,
		slides:   lo.Compact(slides),
		debounce: debounce,
		build:    build,
		logger:   logger,
	}
}

// Start runs an initial build, then rebuilds after each burst of changes
// once debounce has passed without further events. It returns nil when ctx
// is cancelled. Failed builds are logged and watching continues.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if st, err := os.Stat(w.dir); err != nil {
		return fmt.Errorf("slides directory: %w", err)
	} else if !st.IsDir() {
		return fmt.Errorf("slides directory %s is not a directory", w.dir)
	}
	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching slides", zap.String("dir", w.dir), zap.Duration("debounce", w.debounce))

	w.runBuild(ctx)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()
	var pending []string

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !w.relevant(event.Name) {
				continue
			}
			w.logger.Debug("change detected", zap.String("file", filepath.Base(event.Name)))
			if !lo.Contains(pending, filepath.Base(event.Name)) {
				pending = append(pending, filepath.Base(event.Name))
			}
			timer.Reset(w.debounce)

		case <-timer.C:
			w.logger.Info("rebuilding", zap.Strings("changed", pending))
			pending = nil
			w.runBuild(ctx)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))

		case <-ctx.Done():
			return nil
		}
	}
}

func (w *Watcher) relevant(path string) bool {
	name := filepath.Base(path)
	if strings.EqualFold(filepath.Ext(name), ".css") {
		return true
	}
	return lo.Contains(w.slides, name)
}

func (w *Watcher) runBuild(ctx context.Context) {
	w.mu.Lock()
	w.active = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.active = false
		w.builds++
		w.mu.Unlock()
	}()

	start := time.Now()
	path, err := w.build(ctx)
	if err != nil {
		w.logger.Error("build failed", zap.Error(err))
		return
	}
	w.logger.Info("build finished", zap.String("path", path), zap.Duration("took", time.Since(start)))
}

// IsBuilding reports whether a build is running.
func (w *Watcher) IsBuilding() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

// Builds returns how many builds have finished, failed ones included.
func (w *Watcher) Builds() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.builds
}
