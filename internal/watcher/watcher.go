// Package watcher reports changes to topology source files.
//
// Editors often save by writing a temporary file and renaming it over the
// original, so the watcher watches the containing directories and filters
// events by file name. Bursts of events are coalesced: the callback runs once
// the files have been quiet for the debounce interval.
package watcher

import (
	"context"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a change is reported.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a set of files for changes.
type Watcher struct {
	paths    []string
	onChange func(changed []string)
	debounce time.Duration
	logger   *log.Logger
	ready    chan struct{}
}

// New creates a watcher for paths. onChange receives the absolute paths that
// changed since the last call, sorted. It is called from the Watch goroutine,
// never concurrently with itself.
func New(paths []string, onChange func(changed []string), logger *log.Logger) *Watcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Watcher{
		paths:    paths,
		onChange: onChange,
		debounce: DefaultDebounce,
		logger:   logger,
		ready:    make(chan struct{}),
	}
}

// WithDebounce sets the debounce duration.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// Ready is closed once every directory is being watched.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// Watch blocks until ctx is cancelled, calling onChange after each burst of
// writes to the watched files.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	files := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, p := range w.paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		files[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			return err
		}
		dirs[dir] = true
		w.logger.Debug("watching directory", "dir", dir)
	}
	close(w.ready)

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending = make(map[string]bool)
	)
	stop := func() {
		if timer != nil {
			timer.Stop()
		}
	}

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				stop()
				return nil
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !files[abs] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending[abs] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-fire:
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			slices.Sort(changed)
			clear(pending)
			timer, fire = nil, nil

			w.logger.Info("files changed", "files", changed)
			w.onChange(changed)

		case err, ok := <-fw.Errors:
			if !ok {
				stop()
				return nil
			}
			w.logger.Warn("watcher error", "err", err)

		case <-ctx.Done():
			stop()
			return ctx.Err()
		}
	}
}
