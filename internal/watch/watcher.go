package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// DefaultDebounce is the quiet period before a reload fires.
const DefaultDebounce = 250 * time.Millisecond

// ErrStopped is returned when Start is called on a stopped watcher.
var ErrStopped = errors.New("watch: watcher stopped")

// ReloadFunc is called once per burst of changes.
type ReloadFunc func(ctx context.Context) error

// Config lists what to watch.
type Config struct {
	// Dir is watched non-recursively for files with one of Extensions.
	Dir        string
	Extensions []string
	// Files are watched individually, through their parent directory so
	// editors that replace files on save are still seen.
	Files    []string
	Debounce time.Duration
}

// Stats reports watcher activity.
type Stats struct {
	Events        int
	Reloads       int
	Errors        int
	LastEventPath string
	LastReload    time.Time
}

// Option customises a Watcher.
type Option func(*Watcher)

// WithLogger sets the watcher logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Watcher debounces filesystem events under the content directory and
// triggers a reload.
type Watcher struct {
	cfg    Config
	reload ReloadFunc
	logger interfaces.Logger

	dir   string
	files map[string]struct{}
	exts  map[string]struct{}

	mu      sync.Mutex
	running bool
	stopped bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	stats   Stats
}

// New constructs a watcher. Nothing is watched until Start.
func New(cfg Config, reload ReloadFunc, opts ...Option) (*Watcher, error) {
	if reload == nil {
		return nil, errors.New("watch: reload func is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	w := &Watcher{
		cfg:    cfg,
		reload: reload,
		logger: logging.NoOp(),
		files:  map[string]struct{}{},
		exts:   map[string]struct{}{},
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if strings.TrimSpace(cfg.Dir) != "" {
		w.dir = absPath(cfg.Dir)
	}
	for _, file := range cfg.Files {
		if strings.TrimSpace(file) != "" {
			w.files[absPath(file)] = struct{}{}
		}
	}
	for _, ext := range cfg.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" {
			w.exts[ext] = struct{}{}
		}
	}
	return w, nil
}

// Start begins watching in a background goroutine. Calling Start on a
// running watcher is a no-op. The loop exits when ctx is done or Stop is
// called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return ErrStopped
	}
	if w.running {
		return nil
	}

	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: new watcher: %w", err)
	}
	for _, dir := range w.watchDirs() {
		if err := notifier.Add(dir); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				w.logger.Warn("watch.add.missing", "dir", dir)
				continue
			}
			notifier.Close()
			return fmt.Errorf("watch: add %s: %w", dir, err)
		}
		w.logger.Debug("watch.add", "dir", dir)
	}

	w.running = true
	go w.run(ctx, notifier)
	return nil
}

// Stop ends the loop and waits for it to exit. It is safe to call more than
// once and before Start.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	running := w.running
	close(w.stopCh)
	w.mu.Unlock()

	if running {
		<-w.doneCh
	}
}

// Done is closed once the loop has exited.
func (w *Watcher) Done() <-chan struct{} {
	return w.doneCh
}

// Stats returns a snapshot of watcher activity.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context, notifier *fsnotify.Watcher) {
	defer close(w.doneCh)
	defer notifier.Close()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("watch.stopped", "reason", "context")
			return
		case <-w.stopCh:
			w.logger.Debug("watch.stopped", "reason", "stop")
			return
		case event, ok := <-notifier.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.mu.Lock()
			w.stats.Events++
			w.stats.LastEventPath = event.Name
			w.mu.Unlock()
			if timer == nil {
				timer = time.NewTimer(w.cfg.Debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.cfg.Debounce)
			}
			fire = timer.C
		case err, ok := <-notifier.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch.error", "error", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-fire:
			fire = nil
			w.fireReload(ctx)
		}
	}
}

func (w *Watcher) fireReload(ctx context.Context) {
	start := time.Now()
	err := w.reload(ctx)
	w.mu.Lock()
	w.stats.Reloads++
	w.stats.LastReload = time.Now()
	if err != nil {
		w.stats.Errors++
	}
	w.mu.Unlock()
	if err != nil {
		w.logger.Error("watch.reload.failed", "error", err)
		return
	}
	w.logger.Info("watch.reload.completed", "duration", time.Since(start))
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := absPath(event.Name)
	if _, ok := w.files[name]; ok {
		return true
	}
	if w.dir == "" || filepath.Dir(name) != w.dir {
		return false
	}
	if len(w.exts) == 0 {
		return true
	}
	_, ok := w.exts[strings.ToLower(filepath.Ext(name))]
	return ok
}

func (w *Watcher) watchDirs() []string {
	seen := map[string]struct{}{}
	var dirs []string
	add := func(dir string) {
		if _, ok := seen[dir]; ok {
			return
		}
		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}
	if w.dir != "" {
		add(w.dir)
	}
	for file := range w.files {
		add(filepath.Dir(file))
	}
	return dirs
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return filepath.Clean(abs)
	}
	return filepath.Clean(path)
}
