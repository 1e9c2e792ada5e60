// Package watch reruns a build whenever watched inputs change.
//
// Directories are watched recursively and files through their parent
// directory. Bursts of events are coalesced: a rebuild starts once no event
// has arrived for the debounce interval, and events that arrive while a build
// runs schedule exactly one follow-up build.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/scanbinder/internal/config"
	"git.home.luguber.info/inful/scanbinder/internal/logfields"
)

// OptionWatch lists extra paths to watch in the global section.
const OptionWatch = "watch"

// DefaultDebounce is the quiet period before a rebuild starts.
const DefaultDebounce = 500 * time.Millisecond

// BuildFunc performs one build. Errors are logged and do not stop watching.
type BuildFunc func(ctx context.Context) error

// Watcher watches files and directory trees.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration

	mu    sync.Mutex
	files map[string]struct{}
	roots []string
}

// New creates a Watcher over paths. Missing paths are an error.
func New(paths []string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	w := &Watcher{fsw: fsw, debounce: debounce, files: make(map[string]struct{})}
	for _, p := range paths {
		if err := w.add(p); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve watch path %s: %w", path, err)
	}
	st, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("watch path: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if st.IsDir() {
		w.roots = append(w.roots, abs)
		return w.addDirsRecursive(abs)
	}
	w.files[abs] = struct{}{}
	if err := w.fsw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return nil
}

func (w *Watcher) addDirsRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				slog.Warn("watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// relevant reports whether an event on path concerns a watched input.
func (w *Watcher) relevant(path string) bool {
	if shouldIgnore(path) {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[path]; ok {
		return true
	}
	for _, root := range w.roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// shouldIgnore filters hidden files and editor temporaries.
func shouldIgnore(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") ||
		strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#")
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run builds once and then again after every change, until ctx is done.
func (w *Watcher) Run(ctx context.Context, build BuildFunc) error {
	requests := make(chan struct{}, 1)
	request := func() {
		select {
		case requests <- struct{}{}:
		default:
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-requests:
				if err := build(ctx); err != nil && ctx.Err() == nil {
					slog.Warn("Rebuild failed", logfields.Error(err))
				}
			}
		}
	}()
	defer wg.Wait()

	request()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
			if !w.relevant(ev.Name) {
				continue
			}
			slog.Debug("Change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, request)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

// handle follows new directories created inside watched trees.
func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) || !w.relevant(ev.Name) {
		return
	}
	if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
		w.mu.Lock()
		_ = w.addDirsRecursive(ev.Name)
		w.mu.Unlock()
	}
}

// Paths returns what to watch for a run: the program and project
// configuration files that exist plus the paths listed in global.watch.
func Paths(store *config.Store, configFiles ...string) ([]string, error) {
	var out []string
	for _, f := range configFiles {
		if _, err := os.Stat(f); err == nil {
			out = append(out, f)
		}
	}
	extra, err := store.Global(OptionWatch, "")
	if err != nil {
		return nil, err
	}
	return append(out, strings.Fields(extra)...), nil
}
