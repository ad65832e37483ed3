// Package watch re-indexes the project when source files change.
//
// Events are debounced so a burst of saves during active editing triggers a
// single re-index once the project settles.
package watch

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ctxprimer/ctxprimer/internal/scan"
)

// DefaultDebounce is the quiet period required before a re-index fires.
const DefaultDebounce = 500 * time.Millisecond

// skipDirs are directory names never watched. Mirrors the scanner's skip
// list so the watcher does not wake up for files the index ignores anyway.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"target":       true,
	".ctxprimer":   true,
	"__pycache__":  true,
}

// Reindex is called after the debounce window closes. It should run a full
// scan and persist the result. Errors are logged, not fatal; the watcher
// keeps running so a transient failure does not kill the session.
type Reindex func(ctx context.Context) error

// Watcher monitors a project root and triggers re-indexing on change.
type Watcher struct {
	root     string
	fsw      *fsnotify.Watcher
	reindex  Reindex
	debounce time.Duration

	// relevant decides whether an event path should trigger a re-index.
	// Defaults to source-file detection; tests may narrow it.
	relevant func(path string) bool
}

// New creates a watcher for root. The reindex callback runs on the watcher's
// goroutine, so at most one re-index is in flight at a time.
func New(root string, reindex Reindex) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		root:     root,
		fsw:      fsw,
		reindex:  reindex,
		debounce: DefaultDebounce,
		relevant: isSource,
	}, nil
}

// Run watches until ctx is canceled. It blocks.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	if err := w.addRecursive(w.root); err != nil {
		return err
	}

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			// New directories must be added to the watch set before any
			// files inside them change.
			if event.Has(fsnotify.Create) && isDir(event.Name) {
				if !skipDirs[filepath.Base(event.Name)] {
					_ = w.addRecursive(event.Name)
				}
				continue
			}
			if !w.relevant(event.Name) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Printf("WARNING: watch error: %v", err)

		case <-timerC:
			timer = nil
			timerC = nil
			if err := w.reindex(ctx); err != nil {
				log.Printf("WARNING: re-index failed: %v", err)
			}
		}
	}
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		base := filepath.Base(p)
		if p != dir && (skipDirs[base] || (len(base) > 1 && base[0] == '.')) {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}

// isSource reports whether a changed path is worth re-indexing for.
func isSource(path string) bool {
	return scan.LanguageOf(path) != ""
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
