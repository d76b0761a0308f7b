package dev

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sylph-dev/sylph/pkg/router"
)

// Change is a debounced file change below the watched root.
type Change struct {
	// Path is the changed file's path, as reported by the OS.
	Path string
	Op   router.Op
}

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// Root is the directory watched recursively.
	Root string

	// Ignore patterns to skip: plain names match any path segment, patterns
	// with a slash match a segment sequence, globs match the base name or,
	// with a slash, the whole path.
	Ignore []string

	// Debounce is the quiet period before pending changes are reported.
	Debounce time.Duration

	Logger *slog.Logger
}

// DefaultIgnore contains default patterns to ignore.
var DefaultIgnore = []string{
	"*_test.go",
	".git",
	"node_modules",
	"*.tmp",
	"*.swp",
	"*~",
}

// ErrWatcherRunning is returned by Start on a watcher that is already
// running.
var ErrWatcherRunning = errors.New("dev: watcher already running")

// Watcher reports file changes below a root directory. Directories created
// while watching are picked up automatically.
type Watcher struct {
	config   WatcherConfig
	logger   *slog.Logger
	mu       sync.Mutex
	running  bool
	onChange func(Change)

	pending []Change
	index   map[string]int
}

// NewWatcher creates a new file watcher.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.Debounce == 0 {
		config.Debounce = 100 * time.Millisecond
	}
	if len(config.Ignore) == 0 {
		config.Ignore = DefaultIgnore
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		config: config,
		logger: logger.With("component", "watcher"),
		index:  make(map[string]int),
	}
}

// OnChange sets the callback for file changes.
func (w *Watcher) OnChange(fn func(Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start watches until ctx is done. It blocks.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrWatcherRunning
	}
	w.running = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := w.addRecursive(fsw, w.config.Root); err != nil {
		return err
	}

	timer := time.NewTimer(w.config.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(fsw, ev) {
				timer.Reset(w.config.Debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case <-timer.C:
			w.flush()
		}
	}
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && w.shouldIgnore(p) {
			return filepath.SkipDir
		}
		if err := fsw.Add(p); err != nil {
			w.logger.Warn("cannot watch directory", "dir", p, "error", err)
		}
		return nil
	})
}

// handle records one fsnotify event and reports whether it is pending.
func (w *Watcher) handle(fsw *fsnotify.Watcher, ev fsnotify.Event) bool {
	if w.shouldIgnore(ev.Name) {
		return false
	}

	var op router.Op
	switch {
	case ev.Has(fsnotify.Create):
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			_ = w.addRecursive(fsw, ev.Name)
			return false
		}
		op = router.OpAdd
	case ev.Has(fsnotify.Write):
		op = router.OpChange
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		op = router.OpRemove
	default:
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if i, ok := w.index[ev.Name]; ok {
		// A file created and then written in one window is still an add.
		if !(w.pending[i].Op == router.OpAdd && op == router.OpChange) {
			w.pending[i].Op = op
		}
		return true
	}
	w.index[ev.Name] = len(w.pending)
	w.pending = append(w.pending, Change{Path: ev.Name, Op: op})
	return true
}

func (w *Watcher) flush() {
	w.mu.Lock()
	batch := w.pending
	w.pending = nil
	clear(w.index)
	callback := w.onChange
	w.mu.Unlock()

	if callback == nil {
		return
	}
	for _, c := range batch {
		callback(c)
	}
}

// shouldIgnore checks if a path should be ignored. Patterns are matched
// against the path relative to Root, so the directories above Root never
// count.
func (w *Watcher) shouldIgnore(fullPath string) bool {
	p := fullPath
	if rel, err := filepath.Rel(w.config.Root, fullPath); err == nil && !outside(rel) {
		if rel == "." {
			return false
		}
		p = rel
	}
	name := filepath.Base(p)
	normalized := filepath.ToSlash(p)

	for _, pattern := range w.config.Ignore {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if name == pattern {
			return true
		}

		hasPathSep := strings.Contains(pattern, "/")
		if strings.ContainsAny(pattern, "*?[") {
			if hasPathSep {
				if matched, _ := path.Match(pattern, normalized); matched {
					return true
				}
			} else if matched, _ := filepath.Match(pattern, name); matched {
				return true
			}
			continue
		}

		if hasPathSep {
			if pathMatchesSegments(normalized, pattern) {
				return true
			}
			continue
		}
		if pathHasSegment(normalized, pattern) {
			return true
		}
	}
	return false
}

func outside(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func pathHasSegment(p, segment string) bool {
	for _, part := range splitPathSegments(p) {
		if part == segment {
			return true
		}
	}
	return false
}

func pathMatchesSegments(p, pattern string) bool {
	pathParts := splitPathSegments(p)
	patternParts := splitPathSegments(pattern)
	if len(patternParts) == 0 || len(patternParts) > len(pathParts) {
		return false
	}

	for i := 0; i <= len(pathParts)-len(patternParts); i++ {
		match := true
		for j := range patternParts {
			if pathParts[i+j] != patternParts[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func splitPathSegments(p string) []string {
	parts := strings.Split(p, "/")
	result := parts[:0]
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}
	return result
}
