package rendercache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/singleflight"

	"soundprint-mockup/logger"
	"soundprint-mockup/models"
	"soundprint-mockup/utils"
)

// secondTierTimeout bounds each Redis round trip so a slow tier cannot stall renders.
const secondTierTimeout = 2 * time.Second

// DefaultComputeTimeout bounds one shared render computation.
const DefaultComputeTimeout = 2 * time.Minute

// Entry is a cached render.
type Entry struct {
	Bytes        []byte              `json:"bytes"`
	Format       models.OutputFormat `json:"format"`
	RenderTimeMs int64               `json:"renderTimeMs"`
}

// ComputeFunc produces the entry for a fingerprint on a miss.
type ComputeFunc func(ctx context.Context) (Entry, error)

// CacheInterface is the render cache contract used by the pre-generator and service.
type CacheInterface interface {
	Get(ctx context.Context, fp string) (Entry, bool)
	ComputeOrWait(ctx context.Context, fp string, fn ComputeFunc) (Entry, bool, error)
	Stats() models.CacheStats
}

// SecondTierInterface is an optional shared cache behind the in-process LRU.
type SecondTierInterface interface {
	Get(ctx context.Context, fp string) (Entry, bool, error)
	Set(ctx context.Context, fp string, e Entry) error
}

// Cache maps fingerprints to encoded renders with at most one computation in flight per
// fingerprint. Only successes are stored.
type Cache struct {
	// ComputeTimeout bounds each shared computation; one past it fails with ErrTimeout and
	// frees the fingerprint. Zero disables it.
	ComputeTimeout time.Duration

	log *logger.Logger
	l2  SecondTierInterface

	mu    sync.Mutex
	lru   *utils.LRU[string, Entry]
	group singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
	shared atomic.Int64
}

// New creates a render cache bounded by maxBytes of output and maxEntries entries.
// l2 may be nil.
func New(maxBytes int64, maxEntries int, l2 SecondTierInterface, log *logger.Logger) *Cache {
	return &Cache{
		ComputeTimeout: DefaultComputeTimeout,
		log:            logger.OrNop(log).With("component", "RenderCache"),
		l2:             l2,
		lru:            utils.NewLRU[string, Entry](maxBytes, maxEntries),
	}
}

// Ensure Cache implements CacheInterface
var _ CacheInterface = (*Cache)(nil)

// Get returns a cached entry from memory, falling back to the second tier.
func (c *Cache) Get(ctx context.Context, fp string) (Entry, bool) {
	if e, ok := c.local(fp); ok {
		return e, true
	}
	return c.fromSecondTier(ctx, fp)
}

type flight struct {
	entry  Entry
	cached bool
}

// ComputeOrWait returns the entry for fp, computing it with fn on a miss. Concurrent callers for
// the same fingerprint wait for the one computation and share its result or error. The boolean
// is true when this caller did not run fn itself.
func (c *Cache) ComputeOrWait(ctx context.Context, fp string, fn ComputeFunc) (Entry, bool, error) {
	if e, ok := c.local(fp); ok {
		c.hits.Add(1)
		return e, true, nil
	}

	// The computation outlives any single waiter.
	detached := context.WithoutCancel(ctx)
	timeout := c.ComputeTimeout
	ran := false
	ch := c.group.DoChan(fp, func() (interface{}, error) {
		ran = true
		if e, ok := c.local(fp); ok {
			return flight{entry: e, cached: true}, nil
		}

		flightCtx, cancel := withOptionalTimeout(detached, timeout)
		defer cancel()

		if e, ok := c.fromSecondTier(flightCtx, fp); ok {
			c.store(fp, e)
			return flight{entry: e, cached: true}, nil
		}

		c.misses.Add(1)
		e, err := fn(flightCtx)
		if err != nil {
			if !errors.Is(err, models.ErrTimeout) && errors.Is(flightCtx.Err(), context.DeadlineExceeded) {
				err = fmt.Errorf("%w: render exceeded %v", models.ErrTimeout, timeout)
			}
			return nil, err
		}
		c.store(fp, e)
		c.toSecondTier(detached, fp, e)
		return flight{entry: e}, nil
	})

	select {
	case <-ctx.Done():
		return Entry{}, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Entry{}, false, res.Err
		}
		f := res.Val.(flight)
		fromCache := f.cached || !ran
		if !ran {
			c.shared.Add(1)
		} else if f.cached {
			c.hits.Add(1)
		}
		return f.entry, fromCache, nil
	}
}

// Stats reports occupancy and counters.
func (c *Cache) Stats() models.CacheStats {
	c.mu.Lock()
	entries, size, budget, evictions := c.lru.Len(), c.lru.Size(), c.lru.MaxBytes(), c.lru.Evictions()
	c.mu.Unlock()

	hits, misses := c.hits.Load(), c.misses.Load()
	stats := models.CacheStats{
		Entries:   entries,
		SizeBytes: size,
		Size:      humanize.IBytes(uint64(size)),
		Budget:    humanize.IBytes(uint64(budget)),
		Hits:      hits,
		Misses:    misses,
		Shared:    c.shared.Load(),
		Evictions: evictions,
	}
	if hits+misses > 0 {
		stats.HitRate = float64(hits) / float64(hits+misses)
	}
	return stats
}

func (c *Cache) local(fp string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Get(fp)
}

func (c *Cache) store(fp string, e Entry) {
	c.mu.Lock()
	stored := c.lru.Add(fp, e, int64(len(e.Bytes)))
	c.mu.Unlock()
	if !stored {
		c.log.Warn("⚠️  Render exceeds cache budget, not cached", "fingerprint", fp, "size", humanize.IBytes(uint64(len(e.Bytes))))
	}
}

func (c *Cache) fromSecondTier(ctx context.Context, fp string) (Entry, bool) {
	if c.l2 == nil {
		return Entry{}, false
	}
	ctx, cancel := context.WithTimeout(ctx, secondTierTimeout)
	defer cancel()

	e, ok, err := c.l2.Get(ctx, fp)
	if err != nil {
		c.log.Warn("⚠️  Second-tier cache read failed", "fingerprint", fp, "error", err)
		return Entry{}, false
	}
	return e, ok
}

func (c *Cache) toSecondTier(ctx context.Context, fp string, e Entry) {
	if c.l2 == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, secondTierTimeout)
	defer cancel()

	if err := c.l2.Set(ctx, fp, e); err != nil {
		c.log.Warn("⚠️  Second-tier cache write failed", "fingerprint", fp, "error", err)
	}
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
