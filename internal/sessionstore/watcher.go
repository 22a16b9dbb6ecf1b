package sessionstore

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dioko-ai/bob/internal/log"
)

// plannerDebounce coalesces a burst of writes to planner.md (an editor
// saving in several passes, or a watch that briefly sees a temp-file
// rename) into a single change notification.
const plannerDebounce = 100 * time.Millisecond

// Watcher notifies a caller when planner.md changes on disk from outside
// the current process. It is best-effort: internal/orchestrator degrades
// to TTL-only cache invalidation if a Watcher cannot be started, per the
// "[ADDED] Session-directory watcher" design.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	dir       string
	onChange  chan struct{}
	done      chan struct{}
}

// NewPlannerWatcher builds (but does not start) a Watcher over dir, the
// open session's directory.
func NewPlannerWatcher(dir string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	return &Watcher{
		fsWatcher: fsw,
		dir:       dir,
		onChange:  make(chan struct{}, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching the session directory and returns a channel that
// receives a signal, debounced, each time planner.md is written.
func (w *Watcher) Start() (<-chan struct{}, error) {
	if err := w.fsWatcher.Add(w.dir); err != nil {
		_ = w.fsWatcher.Close()
		return nil, fmt.Errorf("watching session directory %s: %w", w.dir, err)
	}
	log.Debug(log.CatWatcher, "planner watch started", "dir", w.dir)
	go w.loop()
	return w.onChange, nil
}

// Stop terminates the watcher and releases its fsnotify resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

func (w *Watcher) loop() {
	var timer *time.Timer
	var pending bool

	for {
		var timerC <-chan time.Time
		if timer != nil {
			timerC = timer.C
		}

		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.isPlannerEvent(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(plannerDebounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(plannerDebounce)
			}
			pending = true

		case <-timerC:
			if pending {
				select {
				case w.onChange <- struct{}{}:
				default:
				}
				pending = false
			}

		case _, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// isPlannerEvent reports whether event is a write or create against
// planner.md specifically: the watcher has no interest in tasks.json or
// any other artifact, which this process's own writers already track via
// the generation counter.
func (w *Watcher) isPlannerEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	return filepath.Base(event.Name) == filePlanner
}
