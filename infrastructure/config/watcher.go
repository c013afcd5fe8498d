package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses the burst of events editors emit on save.
const DefaultDebounce = 500 * time.Millisecond

// ContentWatcher hot reloads board definitions and catalogs in development.
// Parent directories are watched so that atomic renames are seen.
type ContentWatcher struct {
	mu       sync.Mutex
	handlers map[string]func(path string)
	timers   map[string]*time.Timer
	delay    time.Duration

	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

// NewContentWatcher creates a watcher. A zero delay means DefaultDebounce.
func NewContentWatcher(delay time.Duration, logger *zap.Logger) (*ContentWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if delay <= 0 {
		delay = DefaultDebounce
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &ContentWatcher{
		handlers: make(map[string]func(string)),
		timers:   make(map[string]*time.Timer),
		delay:    delay,
		watcher:  fsWatcher,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		logger:   logger,
	}, nil
}

// Watch registers onChange for path. It is called once per debounced burst
// of writes, creates or renames.
func (w *ContentWatcher) Watch(path string, onChange func(path string)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	w.mu.Lock()
	w.handlers[abs] = onChange
	w.mu.Unlock()

	w.logger.Debug("Watching content file", zap.String("path", abs))
	return nil
}

// Start runs the event loop until Stop.
func (w *ContentWatcher) Start() {
	go w.watchLoop()
	w.logger.Info("Content hot reloading enabled")
}

// Stop ends the loop and cancels pending reloads.
func (w *ContentWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
		w.mu.Lock()
		for _, t := range w.timers {
			t.Stop()
		}
		w.mu.Unlock()
	})
}

// Done is closed once the loop has exited.
func (w *ContentWatcher) Done() <-chan struct{} {
	return w.doneCh
}

func (w *ContentWatcher) watchLoop() {
	defer close(w.doneCh)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule(filepath.Clean(event.Name), event.Op)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Content watcher error", zap.Error(err))

		case <-w.stopCh:
			return
		}
	}
}

func (w *ContentWatcher) schedule(path string, op fsnotify.Op) {
	w.mu.Lock()
	defer w.mu.Unlock()

	handler, ok := w.handlers[path]
	if !ok {
		return
	}
	w.logger.Info("Content file changed",
		zap.String("file", path),
		zap.String("operation", op.String()),
	)
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.delay, func() {
		select {
		case <-w.stopCh:
			return
		default:
		}
		handler(path)
	})
}
