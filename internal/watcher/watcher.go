// Package watcher monitors a catalog's source tree and reports batches
// of changed extractable files after a quiet period. Pause and Resume
// let an update run suppress callbacks while it is writing; events keep
// accumulating during a pause and flush on resume.
package watcher

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period between the last observed change
// and the callback firing.
const DefaultDebounce = 500 * time.Millisecond

// SourceWatcher watches source directories for changes with debouncing
// and pause/resume support.
type SourceWatcher interface {
	// Start begins watching, invoking callback with debounced batches of
	// changed file paths.
	Start(ctx context.Context, callback func(files []string)) error

	// Stop shuts the watcher down and releases its resources.
	Stop() error

	// Pause suppresses callbacks while continuing to accumulate events.
	Pause()

	// Resume re-enables callbacks, flushing anything accumulated while
	// paused.
	Resume()
}

type sourceWatcher struct {
	fsw      *fsnotify.Watcher
	matches  func(path string) bool
	debounce time.Duration
	callback func(files []string)

	ctx    context.Context
	cancel context.CancelFunc

	paused   bool
	pausedMu sync.RWMutex

	pending   map[string]bool
	pendingMu sync.Mutex

	timer   *time.Timer
	timerMu sync.Mutex

	stopOnce sync.Once
	done     chan struct{}
}

// New builds a watcher over the given root directories, registered
// recursively. matches decides which changed files are interesting,
// typically the extractor registry's IsFileSupported; nil matches
// everything. debounce <= 0 selects DefaultDebounce.
func New(roots []string, matches func(path string) bool, debounce time.Duration) (SourceWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if matches == nil {
		matches = func(string) bool { return true }
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &sourceWatcher{
		fsw:      fsw,
		matches:  matches,
		debounce: debounce,
		pending:  make(map[string]bool),
		done:     make(chan struct{}),
	}
	for _, root := range roots {
		if err := w.watchTree(root); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Start begins watching for source changes.
func (w *sourceWatcher) Start(ctx context.Context, callback func(files []string)) error {
	if callback == nil {
		return fmt.Errorf("watcher: nil callback")
	}
	w.callback = callback
	w.ctx, w.cancel = context.WithCancel(ctx)

	go w.run()
	return nil
}

// Stop shuts the watcher down. Safe to call more than once.
func (w *sourceWatcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		if w.cancel != nil {
			w.cancel()
			<-w.done
		} else {
			// Never started.
			close(w.done)
		}
		err = w.fsw.Close()
	})
	return err
}

// Pause suppresses callbacks. Events keep accumulating.
func (w *sourceWatcher) Pause() {
	w.pausedMu.Lock()
	defer w.pausedMu.Unlock()
	w.paused = true
}

// Resume re-enables callbacks. Changes that arrived during the pause are
// delivered immediately, on the caller's goroutine.
func (w *sourceWatcher) Resume() {
	w.pausedMu.Lock()
	wasPaused := w.paused
	w.paused = false
	w.pausedMu.Unlock()

	if wasPaused {
		w.flush()
	}
}

// run is the event loop. One iteration per filesystem event, debounce
// expiry or watcher error.
func (w *sourceWatcher) run() {
	defer close(w.done)

	flushCh := make(chan struct{}, 1)

	for {
		select {
		case <-w.ctx.Done():
			w.stopTimer()
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}

			// A new directory needs its own recursive registration.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.watchTree(event.Name); err != nil {
						log.Printf("Warning: failed to watch new directory %s: %v", event.Name, err)
					}
				}
			}

			if !w.wantsEvent(event) {
				continue
			}

			w.pendingMu.Lock()
			w.pending[event.Name] = true
			w.pendingMu.Unlock()

			w.resetTimer(flushCh)

		case <-flushCh:
			w.flush()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("Warning: source watcher error: %v", err)
		}
	}
}

// flush delivers the accumulated batch unless paused. Paths are sorted so
// consumers see a deterministic order.
func (w *sourceWatcher) flush() {
	w.pausedMu.RLock()
	paused := w.paused
	w.pausedMu.RUnlock()
	if paused {
		return
	}

	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	files := make([]string, 0, len(w.pending))
	for f := range w.pending {
		files = append(files, f)
	}
	w.pending = make(map[string]bool)
	w.pendingMu.Unlock()

	sort.Strings(files)
	w.callback(files)
}

// resetTimer restarts the debounce countdown, draining a timer that
// already fired so stale signals cannot double-deliver.
func (w *sourceWatcher) resetTimer(flushCh chan struct{}) {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		if !w.timer.Stop() {
			select {
			case <-w.timer.C:
			default:
			}
		}
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case flushCh <- struct{}{}:
		default:
		}
	})
}

func (w *sourceWatcher) stopTimer() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// wantsEvent reports whether the event describes a content change to a
// file the extractors would claim.
func (w *sourceWatcher) wantsEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
		return false
	}
	return w.matches(event.Name)
}

// watchTree registers every directory under root. Errors below the root
// are logged and skipped so one unreadable subtree does not kill the
// whole watch.
func (w *sourceWatcher) watchTree(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			log.Printf("Warning: error accessing %s: %v", path, err)
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			log.Printf("Warning: failed to watch directory %s: %v", path, err)
		}
		return nil
	})
}
