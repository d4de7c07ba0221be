package watch

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"policylens-be/internal/pkg/logger"

	"github.com/fsnotify/fsnotify"
)

// ChangeHandler receives a debounced file change.
type ChangeHandler func(ctx context.Context, path string)

// DocumentWatcher watches the policy data directory and reports changed
// facts (.json) and policy (.md) documents after a quiet period.
type DocumentWatcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	dir         string
	debounceDur time.Duration
	pending     map[string]time.Time
	handler     ChangeHandler
	logger      logger.ILogger
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
}

func NewDocumentWatcher(dir string, debounce time.Duration, handler ChangeHandler, log logger.ILogger) (*DocumentWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &DocumentWatcher{
		watcher:     w,
		dir:         dir,
		debounceDur: debounce,
		pending:     make(map[string]time.Time),
		handler:     handler,
		logger:      log,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start is non-blocking; events are processed on a background goroutine.
func (dw *DocumentWatcher) Start(ctx context.Context) error {
	dw.mu.Lock()
	if dw.running {
		dw.mu.Unlock()
		return nil
	}
	dw.running = true
	dw.mu.Unlock()

	if err := dw.watcher.Add(dw.dir); err != nil {
		dw.mu.Lock()
		dw.running = false
		dw.mu.Unlock()
		return err
	}
	dw.logger.Info("WATCHER", "Watching policy documents", map[string]interface{}{"dir": dw.dir})

	go dw.run(ctx)
	return nil
}

// Stop ends the event loop and releases the OS watcher.
func (dw *DocumentWatcher) Stop() {
	dw.mu.Lock()
	if !dw.running {
		dw.mu.Unlock()
		_ = dw.watcher.Close()
		return
	}
	dw.running = false
	dw.mu.Unlock()

	close(dw.stopCh)
	<-dw.doneCh
	if err := dw.watcher.Close(); err != nil {
		dw.logger.Error("WATCHER", "Error closing watcher", map[string]interface{}{"error": err.Error()})
	}
}

func (dw *DocumentWatcher) run(ctx context.Context) {
	defer close(dw.doneCh)

	tick := dw.debounceDur / 5
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-dw.stopCh:
			return
		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			dw.handleEvent(event)
		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			dw.logger.Error("WATCHER", "Watcher error", map[string]interface{}{"error": err.Error()})
		case <-ticker.C:
			dw.flush(ctx)
		}
	}
}

func (dw *DocumentWatcher) handleEvent(event fsnotify.Event) {
	if !IsPolicyDocument(event.Name) {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	dw.mu.Lock()
	dw.pending[event.Name] = time.Now()
	dw.mu.Unlock()
}

func (dw *DocumentWatcher) flush(ctx context.Context) {
	now := time.Now()
	var ready []string

	dw.mu.Lock()
	for path, last := range dw.pending {
		if now.Sub(last) >= dw.debounceDur {
			ready = append(ready, path)
			delete(dw.pending, path)
		}
	}
	dw.mu.Unlock()

	for _, path := range ready {
		dw.logger.Info("WATCHER", "Policy document changed", map[string]interface{}{"path": path})
		dw.handler(ctx, path)
	}
}

// IsPolicyDocument reports whether path is a facts or policy document.
func IsPolicyDocument(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".json", ".md", ".yaml", ".yml":
		return true
	}
	return false
}
