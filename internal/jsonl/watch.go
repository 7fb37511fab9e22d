package jsonl

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce matches the teacher's own directory-watch debounce
// window for its JSONL export/import drops (the revision artifacts
// spec §6 describes as used "for backups and transfer between
// deployments") — short enough to notice a finished write promptly,
// long enough to coalesce a burst of writes from one export.
const DefaultDebounce = 500 * time.Millisecond

// Watch watches dir for created or written files and calls onPath once
// per settled burst of changes to a given path, debounced by
// DefaultDebounce. It blocks until ctx is cancelled, at which point it
// returns ctx.Err(). Grounded on the teacher's own fsnotify-based watch
// loop (cmd/bd's `show --watch`), generalized from "redraw on change" to
// "notify on settled file".
//
// All state is owned by the select loop below; debounce timers report
// back through settled rather than mutating shared state from their own
// goroutines, so there's nothing to guard with a mutex.
func Watch(ctx context.Context, dir string, onPath func(path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("jsonl: watch %s: %w", dir, err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("jsonl: watch %s: %w", dir, err)
	}

	pending := make(map[string]*time.Timer)
	settled := make(chan string, 16)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case path := <-settled:
			delete(pending, path)
			onPath(path)
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			path := ev.Name
			if t, exists := pending[path]; exists {
				t.Stop()
			}
			pending[path] = time.AfterFunc(DefaultDebounce, func() {
				select {
				case settled <- path:
				case <-ctx.Done():
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("jsonl: watch %s: %w", dir, err)
		}
	}
}
