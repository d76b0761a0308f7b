package provider

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/sylph-dev/sylph/internal/dev"
	"github.com/sylph-dev/sylph/pkg/router"
	"github.com/sylph-dev/sylph/pkg/routepath"
)

// DefaultExclude lists directory names never scanned for modules.
var DefaultExclude = []string{"public", "utils", "node_modules"}

// ErrNoLoader is returned by Dir.Load when no LoadFunc is configured.
var ErrNoLoader = errors.New("provider: directory has no loader")

// LoadFunc loads the module at a path relative to the directory root.
type LoadFunc func(ctx context.Context, path string) (router.Module, error)

// Dir enumerates modules from a directory tree and loads them with a
// LoadFunc. Dot directories, excluded directories, and _test.go files are
// skipped.
type Dir struct {
	// Root is the directory on disk. It is watched in live mode.
	Root string

	// FS is walked for module paths. Nil uses os.DirFS(Root).
	FS fs.FS

	// Loader loads a module by relative path, e.g. Catalog.Load or
	// PluginLoader.Load.
	Loader LoadFunc

	// Extensions lists recognized module extensions. Empty uses
	// routepath.DefaultExtensions.
	Extensions []string

	// Exclude lists directory names or root-relative paths to skip. Nil
	// uses DefaultExclude.
	Exclude []string

	// Debounce is the quiet period for coalescing file events.
	Debounce time.Duration

	Logger *slog.Logger
}

// NewDir creates a provider for root that loads modules with load.
func NewDir(root string, load LoadFunc) *Dir {
	return &Dir{Root: root, Loader: load}
}

// Paths implements router.Provider.
func (d *Dir) Paths(ctx context.Context) ([]string, error) {
	fsys := d.FS
	if fsys == nil {
		fsys = os.DirFS(d.Root)
	}

	var paths []string
	err := fs.WalkDir(fsys, ".", func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == "." {
			return nil
		}
		if entry.IsDir() {
			if d.excludedDir(p) {
				return fs.SkipDir
			}
			return nil
		}
		if d.isModule(p) {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// Load implements router.Provider.
func (d *Dir) Load(ctx context.Context, path string) (router.Module, error) {
	if d.Loader == nil {
		return router.Module{}, ErrNoLoader
	}
	return d.Loader(ctx, path)
}

// Watch implements router.Watcher. It reports module files below Root that
// are added, changed or removed, with paths relative to Root.
func (d *Dir) Watch(ctx context.Context, emit func(router.Event)) error {
	ignore := append([]string{"*_test.go", ".*"}, d.exclude()...)
	w := dev.NewWatcher(dev.WatcherConfig{
		Root:     d.Root,
		Ignore:   ignore,
		Debounce: d.Debounce,
		Logger:   d.Logger,
	})

	w.OnChange(func(c dev.Change) {
		rel, err := filepath.Rel(d.Root, c.Path)
		if err != nil {
			return
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, "../") || !d.isModule(rel) || d.excludedPath(rel) {
			return
		}
		emit(router.Event{Op: c.Op, Path: rel})
	})
	return w.Start(ctx)
}

func (d *Dir) exclude() []string {
	if d.Exclude == nil {
		return DefaultExclude
	}
	return d.Exclude
}

func (d *Dir) excludedDir(p string) bool {
	name := path.Base(p)
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, e := range d.exclude() {
		e = strings.Trim(filepath.ToSlash(e), "/")
		if e == name || e == p {
			return true
		}
	}
	return false
}

// excludedPath reports whether any directory of a relative file path is
// excluded.
func (d *Dir) excludedPath(rel string) bool {
	dir := path.Dir(rel)
	for dir != "." && dir != "/" {
		if d.excludedDir(dir) {
			return true
		}
		dir = path.Dir(dir)
	}
	return false
}

func (d *Dir) isModule(p string) bool {
	name := path.Base(p)
	if strings.HasSuffix(name, "_test.go") || strings.HasPrefix(name, ".") {
		return false
	}
	exts := d.Extensions
	if len(exts) == 0 {
		exts = routepath.DefaultExtensions
	}
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
