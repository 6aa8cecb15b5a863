// Package viewport implements the map-view data path: a bounds-keyed fetch
// cache that memoizes profile fetches per quantized viewport, and a debounced
// watcher that serializes rapid viewport changes.
package viewport

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"floatdeck/internal/types"
)

// boundsPrecision is the number of decimal places bounds are rounded to
// before keying. Map-drag events produce near-duplicate viewports; rounding
// keeps them from creating unbounded distinct cache entries.
const boundsPrecision = 3

// anySentinel is substituted for unset filter values in cache keys.
const anySentinel = "any"

// Fetcher loads the profile records for a viewport. It is an injected
// capability: the cache never reaches for a process-global data source.
type Fetcher func(ctx context.Context, bounds types.Bounds, filters types.FilterSet) ([]types.ProfileRecord, error)

// MetricsRecorder receives cache telemetry. Implementations must be safe for
// concurrent use.
type MetricsRecorder interface {
	RecordCacheLookup(ctx context.Context, hit bool)
	RecordFetchFallback(ctx context.Context)
}

// cacheEntry is one memoized fetch result. Entries are never mutated after
// insertion, only replaced wholesale when the same key is recomputed.
type cacheEntry struct {
	records    []types.ProfileRecord
	insertedAt time.Time
}

// entryStore abstracts the two backing stores: the unbounded map (faithful to
// the observed behavior) and the optional capacity-bounded LRU.
type entryStore interface {
	get(key string) (cacheEntry, bool)
	add(key string, e cacheEntry)
	len() int
}

type mapStore struct {
	entries map[string]cacheEntry
}

func (s *mapStore) get(key string) (cacheEntry, bool) {
	e, ok := s.entries[key]
	return e, ok
}

func (s *mapStore) add(key string, e cacheEntry) { s.entries[key] = e }

func (s *mapStore) len() int { return len(s.entries) }

type lruStore struct {
	cache *lru.Cache[string, cacheEntry]
}

func (s *lruStore) get(key string) (cacheEntry, bool) { return s.cache.Get(key) }

func (s *lruStore) add(key string, e cacheEntry) { s.cache.Add(key, e) }

func (s *lruStore) len() int { return s.cache.Len() }

// Cache memoizes viewport fetches for the lifetime of the engine instance.
// A key hit is trusted unconditionally: no stale-check, no revalidation.
// On a fetch failure the cache falls back to the most recent successful
// result under any key (the "last-good" slot) so a transient network failure
// never blanks a previously populated view.
type Cache struct {
	fetcher Fetcher
	logger  *slog.Logger
	metrics MetricsRecorder
	clock   types.Clock

	group singleflight.Group

	mu          sync.Mutex
	store       entryStore
	lastGood    []types.ProfileRecord
	hasLastGood bool
}

// Option is a functional option for configuring a Cache.
type Option func(*Cache)

// WithCapacity bounds the cache to an LRU of the given capacity. The default
// (capacity <= 0) is the unbounded process-lifetime map.
func WithCapacity(capacity int) Option {
	return func(c *Cache) {
		if capacity <= 0 {
			return
		}
		// lru.New only errors on a non-positive size, which is guarded above.
		backing, err := lru.New[string, cacheEntry](capacity)
		if err != nil {
			return
		}
		c.store = &lruStore{cache: backing}
	}
}

// WithMetrics attaches a telemetry recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithClock overrides the clock used for entry timestamps.
func WithClock(clock types.Clock) Option {
	return func(c *Cache) { c.clock = clock }
}

// NewCache creates a viewport cache in front of the given fetcher.
func NewCache(fetcher Fetcher, logger *slog.Logger, opts ...Option) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cache{
		fetcher: fetcher,
		logger:  logger,
		clock:   types.RealClock{},
		store:   &mapStore{entries: make(map[string]cacheEntry)},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key builds the deterministic cache key for a viewport: clamped bounds
// rounded to three decimal places joined with every filter value in a fixed
// canonical order, unset filters replaced by the "any" sentinel. Two requests
// that clamp and round to the same effective viewport share an entry even if
// their raw inputs differed.
func Key(bounds types.Bounds, filters types.FilterSet) string {
	b := bounds.Clamp()

	parts := []string{
		formatBound(b.South),
		formatBound(b.North),
		formatBound(b.West),
		formatBound(b.East),
		formatFloatFilter(filters.DepthMin),
		formatFloatFilter(filters.DepthMax),
		formatFloatFilter(filters.TemperatureMin),
		formatFloatFilter(filters.TemperatureMax),
		formatFloatFilter(filters.SalinityMin),
		formatFloatFilter(filters.SalinityMax),
		formatIntFilter(filters.Month),
		formatIntFilter(filters.Year),
	}
	return strings.Join(parts, "|")
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', boundsPrecision, 64)
}

func formatFloatFilter(v *float64) string {
	if v == nil {
		return anySentinel
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func formatIntFilter(v *int) string {
	if v == nil {
		return anySentinel
	}
	return strconv.Itoa(*v)
}

// Fetch returns the records for the given viewport, consulting the cache
// first. It never returns an error: a failed fetch degrades to the last-good
// result, or an empty slice when no fetch has ever succeeded. Concurrent
// misses for the same key are collapsed into a single fetcher call.
func (c *Cache) Fetch(ctx context.Context, bounds types.Bounds, filters types.FilterSet) []types.ProfileRecord {
	key := Key(bounds, filters)

	c.mu.Lock()
	entry, ok := c.store.get(key)
	c.mu.Unlock()
	if ok {
		c.recordLookup(ctx, true)
		return entry.records
	}
	c.recordLookup(ctx, false)

	clamped := bounds.Clamp()
	result, err, _ := c.group.Do(key, func() (any, error) {
		records, err := c.fetcher(ctx, clamped, filters)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.store.add(key, cacheEntry{records: records, insertedAt: c.clock.Now()})
		c.lastGood = records
		c.hasLastGood = true
		size := c.store.len()
		c.mu.Unlock()

		c.logger.DebugContext(ctx, "viewport fetch stored",
			"key", key,
			"records", len(records),
			"cache_entries", size,
		)
		return records, nil
	})

	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordFetchFallback(ctx)
		}
		c.mu.Lock()
		fallback, ok := c.lastGood, c.hasLastGood
		c.mu.Unlock()

		c.logger.WarnContext(ctx, "viewport fetch failed, serving last-good set",
			"key", key,
			"has_last_good", ok,
			"error", err,
		)
		if !ok {
			return []types.ProfileRecord{}
		}
		return fallback
	}

	return result.([]types.ProfileRecord)
}

// Len reports the number of memoized entries, for diagnostics.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.len()
}

func (c *Cache) recordLookup(ctx context.Context, hit bool) {
	if c.metrics != nil {
		c.metrics.RecordCacheLookup(ctx, hit)
	}
}
