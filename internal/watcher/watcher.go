package watcher

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
	"go.uber.org/zap"
)

// Watcher reports changes to a fixed set of input files. Events are
// collected for the debounce interval and delivered as one batch.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debounce  time.Duration
	files     map[string]bool
	ignore    []glob.Glob
	onChange  func([]string)
	logger    *zap.SugaredLogger

	pending   map[string]bool
	pendingMu sync.Mutex
	timer     *time.Timer
}

func New(debounce time.Duration, ignorePatterns []string, onChange func([]string), logger *zap.SugaredLogger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	w := &Watcher{
		debounce: debounce,
		files:    make(map[string]bool),
		onChange: onChange,
		logger:   logger,
		pending:  make(map[string]bool),
	}

	for _, pattern := range ignorePatterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid ignore pattern %q", pattern)
		}
		w.ignore = append(w.ignore, g)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "could not create file watcher")
	}
	w.fsWatcher = fsw
	return w, nil
}

// Add watches files. Their directories are watched rather than the files
// themselves so that editors replacing a file by rename are noticed.
func (w *Watcher) Add(files ...string) error {
	directories := make(map[string]bool)
	for _, file := range files {
		absolute, err := filepath.Abs(file)
		if err != nil {
			return errors.Wrapf(err, "could not resolve %s", file)
		}
		w.files[absolute] = true
		directories[filepath.Dir(absolute)] = true
	}

	for directory := range directories {
		if err := w.fsWatcher.Add(directory); err != nil {
			return errors.Wrapf(err, "could not watch %s", directory)
		}
	}
	return nil
}

// Run delivers batches until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.scheduleChange(event.Name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Errorw("File watcher error", "error", err)
		}
	}
}

func (w *Watcher) relevant(path string) bool {
	absolute, err := filepath.Abs(path)
	if err != nil || !w.files[absolute] {
		return false
	}
	base := filepath.Base(absolute)
	for _, g := range w.ignore {
		if g.Match(base) {
			return false
		}
	}
	return true
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flushChanges)
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]bool)
	w.pendingMu.Unlock()

	if len(paths) > 0 {
		sort.Strings(paths)
		w.onChange(paths)
	}
}

func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}
