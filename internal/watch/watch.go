// Package watch re-runs the render pipeline when a watched file changes.
//
// Event delivery and reload execution are decoupled: fsnotify events feed
// a channel, a debouncer coalesces bursts into a single trigger, and one
// consumer goroutine runs reloads. A qualifying event arriving while a
// reload is in flight is folded into the next trigger, never a second
// concurrent reload.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cameronsjo/templer/internal/ui"
)

// DefaultDebounce is the window within which rapid event bursts collapse
// into one reload.
const DefaultDebounce = 300 * time.Millisecond

// ReloadFunc runs one full pipeline pass and returns the new set of paths
// to watch. Returning nil keeps the previous watch set, so a failing
// reload retains the paths of the last successful pass.
type ReloadFunc func() []string

// Controller watches a set of paths and debounces change events into
// sequential reloads. It moves through watching → reloading → watching
// until its context is cancelled, which stops it at the next safe point
// (an in-flight reload always runs to completion).
type Controller struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	reload   ReloadFunc

	mu    sync.Mutex
	files map[string]bool // exact files whose events qualify
	added map[string]bool // directories registered with fsnotify
	timer *time.Timer

	events  chan string
	trigger chan struct{}
}

// New creates a controller. debounce <= 0 uses DefaultDebounce.
func New(debounce time.Duration, reload ReloadFunc) (*Controller, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Controller{
		watcher:  watcher,
		debounce: debounce,
		reload:   reload,
		files:    make(map[string]bool),
		added:    make(map[string]bool),
		events:   make(chan string, 100),
		trigger:  make(chan struct{}, 1),
	}, nil
}

// SetPaths replaces the watched file set. Files are watched through their
// parent directory so editor rename-and-replace saves are still seen, and
// a file that does not exist yet is picked up once it appears. Only events
// for the exact registered files qualify; anything else in the same
// directory, rendered destinations included, is ignored so a reload's own
// writes never feed back into the watcher.
func (c *Controller) SetPaths(paths []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.files = make(map[string]bool)
	register := make(map[string]bool)

	for _, p := range paths {
		p = filepath.Clean(p)
		c.files[p] = true
		register[filepath.Dir(p)] = true
	}

	for dir := range register {
		if c.added[dir] {
			continue
		}
		if err := c.watcher.Add(dir); err != nil {
			ui.Debug("watch: cannot watch %s: %v", dir, err)
			continue
		}
		c.added[dir] = true
	}
	for dir := range c.added {
		if register[dir] {
			continue
		}
		if err := c.watcher.Remove(dir); err == nil {
			delete(c.added, dir)
		}
	}
}

// Start runs the controller until ctx is cancelled. The initial reload is
// the caller's responsibility; Start only reacts to changes.
func (c *Controller) Start(ctx context.Context) error {
	go c.listen(ctx)

	for {
		select {
		case <-ctx.Done():
			c.stopTimer()
			return c.watcher.Close()
		case <-c.trigger:
			ui.Debug("watch: change detected, re-rendering")
			if paths := c.reload(); paths != nil {
				c.SetPaths(paths)
			}
		}
	}
}

// listen filters fsnotify events down to qualifying paths and feeds the
// debouncer. Watch errors are reported and watching continues.
func (c *Controller) listen(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !c.qualifies(event.Name) {
				continue
			}
			c.bump(event.Name)
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			ui.Error("watch: %v", err)
		}
	}
}

func (c *Controller) qualifies(name string) bool {
	name = filepath.Clean(name)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.files[name]
}

// bump records an event and (re)arms the debounce timer. When the window
// elapses without further events, one trigger fires; the trigger channel
// is buffered with size one, so events during a reload coalesce into
// exactly one follow-up pass.
func (c *Controller) bump(name string) {
	ui.Debug("watch: %s changed", name)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		select {
		case c.trigger <- struct{}{}:
		default:
		}
	})
}

func (c *Controller) stopTimer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
}
