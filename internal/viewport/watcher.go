package viewport

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"floatdeck/internal/types"
)

// DefaultDebounce is how long the watcher waits after the last viewport
// change before fetching. Map drags emit a burst of intermediate viewports;
// only the one the user settles on is worth a fetch.
const DefaultDebounce = 500 * time.Millisecond

// Watcher owns the current dataset for one map view. Viewport changes are
// debounced, and every scheduled fetch carries a monotonically increasing
// sequence number: a fetch that completes after a newer one has already
// applied its result is discarded, so the displayed dataset always reflects
// the most recently requested viewport.
type Watcher struct {
	cache    *Cache
	logger   *slog.Logger
	debounce time.Duration
	onUpdate func([]types.ProfileRecord)

	mu      sync.Mutex
	timer   *time.Timer
	nextSeq uint64
	applied uint64
	current []types.ProfileRecord

	wg sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce overrides the debounce interval. Mainly for tests.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithOnUpdate registers a callback invoked with each newly applied dataset.
// The callback runs on the fetch goroutine and must not block.
func WithOnUpdate(fn func([]types.ProfileRecord)) WatcherOption {
	return func(w *Watcher) { w.onUpdate = fn }
}

// NewWatcher creates a watcher over the given cache.
func NewWatcher(cache *Cache, logger *slog.Logger, opts ...WatcherOption) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{
		cache:    cache,
		logger:   logger,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// SetViewport records a viewport change. Any fetch pending from an earlier
// change is cancelled and the debounce window restarts.
func (w *Watcher) SetViewport(ctx context.Context, bounds types.Bounds, filters types.FilterSet) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.nextSeq++
	seq := w.nextSeq

	w.timer = time.AfterFunc(w.debounce, func() {
		w.wg.Add(1)
		defer w.wg.Done()
		w.fetch(ctx, seq, bounds, filters)
	})
}

func (w *Watcher) fetch(ctx context.Context, seq uint64, bounds types.Bounds, filters types.FilterSet) {
	records := w.cache.Fetch(ctx, bounds, filters)

	w.mu.Lock()
	if seq <= w.applied {
		w.mu.Unlock()
		w.logger.DebugContext(ctx, "discarding stale viewport fetch",
			"seq", seq,
			"applied", w.applied,
		)
		return
	}
	w.applied = seq
	w.current = records
	notify := w.onUpdate
	w.mu.Unlock()

	if notify != nil {
		notify(records)
	}
}

// Current returns the most recently applied dataset. It is empty until the
// first debounced fetch completes.
func (w *Watcher) Current() []types.ProfileRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Flush waits for in-flight fetches to finish. Tests and shutdown paths use
// it; a pending timer that has not fired yet is not waited on.
func (w *Watcher) Flush() {
	w.wg.Wait()
}

// Stop cancels any pending debounce timer.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
