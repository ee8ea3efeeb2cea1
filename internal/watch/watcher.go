// Package watch regenerates a plugin when its source directory changes.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/plugforge/plugforge/internal/cache"
)

// DefaultDebounce is used when Config.Debounce is zero
const DefaultDebounce = 300 * time.Millisecond

// ChangeCallback receives the sorted, de-duplicated paths of one burst of changes
type ChangeCallback func(paths []string) error

// Config holds configuration for the watcher
type Config struct {
	// Dir is the plugin directory, watched recursively
	Dir string
	// Ignore lists directories whose events are dropped, such as the output dir
	Ignore []string
	// Debounce is the quiet period that ends a burst of changes
	Debounce time.Duration
	// Cache has the entry of every changed path invalidated before OnChange runs
	Cache    *cache.LRUCache
	OnChange ChangeCallback
}

// Watcher collects file system events under a plugin directory and reports
// them in debounced batches
type Watcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	ignore   []string
	debounce time.Duration
	cache    *cache.LRUCache
	onChange ChangeCallback
	logger   zerolog.Logger

	done     chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]struct{}
}

// NewWatcher creates a watcher; call Start to begin receiving events
func NewWatcher(cfg Config, logger zerolog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	ignore := make([]string, 0, len(cfg.Ignore))
	for _, dir := range cfg.Ignore {
		if dir != "" {
			ignore = append(ignore, filepath.Clean(dir))
		}
	}

	return &Watcher{
		watcher:  fsw,
		dir:      filepath.Clean(cfg.Dir),
		ignore:   ignore,
		debounce: cfg.Debounce,
		cache:    cfg.Cache,
		onChange: cfg.OnChange,
		logger:   logger.With().Str("component", "watcher").Logger(),
		done:     make(chan struct{}),
		pending:  make(map[string]struct{}),
	}, nil
}

// Start watches the plugin directory and processes events in the background
func (w *Watcher) Start() error {
	if err := w.addDirectoryRecursive(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	go w.eventLoop()

	w.logger.Info().Str("dir", w.dir).Dur("debounce", w.debounce).Msg("Watching plugin directory")
	return nil
}

// Stop stops the watcher and drops any pending batch. It is safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)

		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		clear(w.pending)
		w.mu.Unlock()

		if closeErr := w.watcher.Close(); closeErr != nil {
			err = fmt.Errorf("failed to close watcher: %w", closeErr)
		}
		w.logger.Info().Msg("Watcher stopped")
	})
	return err
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Watcher error")

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if w.shouldIgnore(path) || event.Op == fsnotify.Chmod {
		return
	}

	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addDirectoryRecursive(path); err != nil {
				w.logger.Warn().Err(err).Str("path", path).Msg("Failed to watch new directory")
			}
		}
	}

	w.schedule(path)
}

// schedule adds path to the pending batch and restarts the quiet period
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	select {
	case <-w.done:
		return
	default:
	}

	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	clear(w.pending)
	w.timer = nil
	w.mu.Unlock()

	if len(paths) == 0 {
		return
	}
	slices.Sort(paths)

	if w.cache != nil {
		for _, path := range paths {
			w.cache.Invalidate(path)
		}
	}

	w.logger.Debug().Strs("paths", paths).Msg("Plugin sources changed")
	if w.onChange == nil {
		return
	}
	if err := w.onChange(paths); err != nil {
		w.logger.Error().Err(err).Int("changes", len(paths)).Msg("Error handling change")
	}
}

func (w *Watcher) addDirectoryRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.shouldIgnore(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn().Err(err).Str("path", path).Msg("Failed to watch path")
		}
		return nil
	})
}

// shouldIgnore drops hidden entries, node_modules and the ignored directories
func (w *Watcher) shouldIgnore(path string) bool {
	for _, dir := range w.ignore {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	rel, err := filepath.Rel(w.dir, path)
	if err != nil || rel == "." {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if strings.HasPrefix(part, ".") || part == "node_modules" {
			return true
		}
	}
	return false
}
