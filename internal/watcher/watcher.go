// ABOUTME: Watches the corpus directory and triggers a rebuild once changes settle
// ABOUTME: Bursts of fsnotify events are debounced into a single callback
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/harper/orpheo/internal/files"
	"github.com/harper/orpheo/internal/logging"
)

// DefaultDebounce is the quiet period after the last event before a rebuild
const DefaultDebounce = 2 * time.Second

// Options configures a Watcher
type Options struct {
	Debounce time.Duration
	Logger   *slog.Logger
	// Exclude lists directories under the watched one whose events are dropped
	Exclude []string
}

// Watcher calls OnChange after files under a directory change
type Watcher struct {
	dir      string
	onChange func(ctx context.Context) error
	debounce time.Duration
	exclude  []string
	logger   *slog.Logger
}

// New creates a watcher for dir
func New(dir string, onChange func(ctx context.Context) error, opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Watcher{
		dir:      dir,
		onChange: onChange,
		debounce: opts.Debounce,
		exclude:  opts.Exclude,
		logger:   logging.OrDefault(opts.Logger),
	}
}

// Run watches until ctx is done. Callback errors are logged, not returned.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addRecursive(fsw, w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching for changes", "dir", w.dir, "debounce", w.debounce)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ignored(event.Name) || w.excluded(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(fsw, event.Name); err != nil {
						w.logger.Warn("failed to watch new directory", "dir", event.Name, "error", err)
					}
				}
			}
			w.logger.Debug("file event", "path", event.Name, "op", event.Op.String())
			timer.Reset(w.debounce)
			pending = true

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)

		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			w.logger.Info("changes detected, rebuilding", "dir", w.dir)
			if err := w.onChange(ctx); err != nil {
				w.logger.Error("rebuild after change failed", "error", err)
			}
		}
	}
}

func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (ignored(path) || w.excluded(path)) {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}

func (w *Watcher) excluded(path string) bool {
	for _, dir := range w.exclude {
		if files.Within(path, dir) {
			return true
		}
	}
	return false
}

// ignored skips hidden files and editor temp files
func ignored(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp")
}
