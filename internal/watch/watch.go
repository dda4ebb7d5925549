// Package watch regenerates the project when its assets or settings change, and optionally on a
// fixed interval.
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
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/typedstrings/internal/logfields"
)

// Reasons passed to the regenerate callback.
const (
	ReasonStartup  = "startup"
	ReasonChange   = "change"
	ReasonInterval = "interval"
)

// DefaultDebounce is used when Options.Debounce is not positive.
const DefaultDebounce = 500 * time.Millisecond

// RegenerateFunc runs one regeneration. It is never called concurrently with itself.
type RegenerateFunc func(ctx context.Context, reason string)

// Options configure a Watcher.
type Options struct {
	// Dirs are watched recursively. Missing directories are skipped.
	Dirs []string
	// Ignore lists directories whose events never trigger a run (the output folder).
	Ignore []string
	// Debounce is the quiet window after the last change before a run starts.
	Debounce time.Duration
	// Interval enables periodic runs when positive.
	Interval time.Duration
	// RunOnStart requests a run as soon as the watcher is ready.
	RunOnStart bool
}

// Watcher turns filesystem events and timer ticks into serialized regeneration requests.
// Requests arriving while a run is active are coalesced into one follow-up run.
type Watcher struct {
	opts       Options
	ignore     []string
	regenerate RegenerateFunc

	requests  chan string
	ready     chan struct{}
	readyOnce sync.Once

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a watcher. Nothing is watched until Run is called.
func New(opts Options, regenerate RegenerateFunc) (*Watcher, error) {
	if regenerate == nil {
		return nil, fmt.Errorf("watch: regenerate callback is required")
	}
	if len(opts.Dirs) == 0 {
		return nil, fmt.Errorf("watch: at least one directory is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	ignore := make([]string, 0, len(opts.Ignore))
	for _, dir := range opts.Ignore {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("watch: resolve %s: %w", dir, err)
		}
		ignore = append(ignore, abs)
	}

	return &Watcher{
		opts:       opts,
		ignore:     ignore,
		regenerate: regenerate,
		requests:   make(chan string, 1),
		ready:      make(chan struct{}),
	}, nil
}

// Ready is closed once Run has registered every watch.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is done and waits for an active regeneration to return.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fw.Close() }()

	for _, dir := range w.opts.Dirs {
		w.addRecursive(fw, dir)
	}

	scheduler, err := w.schedule()
	if err != nil {
		return err
	}
	if scheduler != nil {
		scheduler.Start()
		defer func() {
			if err := scheduler.Shutdown(); err != nil {
				slog.Warn("Failed to stop scheduler", logfields.Error(err))
			}
		}()
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.worker(ctx)
	}()
	defer wg.Wait()
	defer cancel()
	defer w.stopTimer()

	if w.opts.RunOnStart {
		w.request(ReasonStartup)
	}
	slog.Info("Watching for changes",
		slog.Int("dirs", len(w.opts.Dirs)),
		slog.Duration("debounce", w.opts.Debounce),
		slog.Duration("interval", w.opts.Interval))
	w.readyOnce.Do(func() { close(w.ready) })

	for {
		select {
		case <-ctx.Done():
			slog.Info("Watcher stopping")
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(fw, ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) schedule() (gocron.Scheduler, error) {
	if w.opts.Interval <= 0 {
		return nil, nil
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(w.opts.Interval),
		gocron.NewTask(w.request, ReasonInterval),
		gocron.WithName("periodic-generate"),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create periodic job: %w", err)
	}
	return s, nil
}

func (w *Watcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case reason := <-w.requests:
			if ctx.Err() != nil {
				return
			}
			slog.Debug("Regenerating", slog.String("reason", reason))
			w.regenerate(ctx, reason)
		}
	}
}

// request queues a run unless one is already queued.
func (w *Watcher) request(reason string) {
	select {
	case w.requests <- reason:
	default:
	}
}

func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.Debounce, func() { w.request(ReasonChange) })
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) handle(fw *fsnotify.Watcher, ev fsnotify.Event) {
	if !w.Relevant(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			w.addRecursive(fw, ev.Name)
		}
	}
	slog.Debug("Change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	w.trigger()
}

func (w *Watcher) addRecursive(fw *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && !w.Relevant(path) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// Relevant reports whether a change to path may alter generated output. Hidden entries, editor
// temp files, .meta sidecars and anything under an ignored directory are not.
func (w *Watcher) Relevant(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".meta") {
		return false
	}
	if strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, ".tmp") {
		return false
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return true
	}
	for _, dir := range w.ignore {
		if abs == dir || strings.HasPrefix(abs, dir+string(filepath.Separator)) {
			return false
		}
	}
	return true
}
