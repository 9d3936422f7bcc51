package driver

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"bindgen/internal/trace"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 200 * time.Millisecond

// WatchOptions configures Watch.
type WatchOptions struct {
	// Dirs are watched non-recursively.
	Dirs []string
	// Match filters event paths; nil accepts declaration files and the manifest.
	Match    func(path string) bool
	Debounce time.Duration
}

// Watch calls onChange with the sorted set of changed paths after each quiet
// period following a relevant filesystem event. It returns when ctx is done
// or the watcher fails.
func Watch(ctx context.Context, opts WatchOptions, onChange func(changed []string)) error {
	tracer := trace.FromContext(ctx)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	seen := make(map[string]struct{})
	for _, dir := range opts.Dirs {
		dir = filepath.Clean(dir)
		if _, dup := seen[dir]; dup {
			continue
		}
		seen[dir] = struct{}{}
		if err := watcher.Add(dir); err != nil {
			return err
		}
	}

	match := opts.Match
	if match == nil {
		match = func(path string) bool {
			return FormatOf(path) != FormatUnknown || filepath.Base(path) == "bindgen.toml"
		}
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod || !match(ev.Name) {
				continue
			}
			trace.Point(tracer, trace.ScopeDriver, "watch", ev.Op.String()+" "+ev.Name)
			pending[ev.Name] = struct{}{}
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)
			onChange(changed)
		}
	}
}
