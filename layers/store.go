package layers

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"soundprint-mockup/logger"
	"soundprint-mockup/models"
	"soundprint-mockup/utils"
)

// DecodedLayerSet holds the realized rasters of one template. Every auxiliary layer has the
// base photo's dimensions; optional layers are nil when the template has none.
type DecodedLayerSet struct {
	TemplateID   string
	Base         *image.NRGBA
	Displacement *image.Gray
	Mask         *image.Gray
	Shadow       *image.Gray
	Highlight    *image.Gray
	Texture      *image.Gray
}

func (s *DecodedLayerSet) Width() int  { return s.Base.Rect.Dx() }
func (s *DecodedLayerSet) Height() int { return s.Base.Rect.Dy() }

// SizeBytes is the decoded footprint charged against the layer cache budget.
func (s *DecodedLayerSet) SizeBytes() int64 {
	size := int64(len(s.Base.Pix))
	for _, g := range []*image.Gray{s.Displacement, s.Mask, s.Shadow, s.Highlight, s.Texture} {
		if g != nil {
			size += int64(len(g.Pix))
		}
	}
	return size
}

// DefaultLoadTimeout bounds one shared fetch+decode of a template's layers.
const DefaultLoadTimeout = 2 * time.Minute

// StoreInterface resolves a template's layer refs into decoded rasters.
type StoreInterface interface {
	Resolve(ctx context.Context, tpl models.Template) (*DecodedLayerSet, error)
	Stats() models.CacheStats
}

// Store caches decoded layer sets by template id under a decoded-byte budget, decoding each
// template at most once at a time.
type Store struct {
	// LoadTimeout bounds each shared load; a load past it fails with ErrTimeout and frees the
	// key. Zero disables it.
	LoadTimeout time.Duration

	source AssetSourceInterface
	io     *semaphore.Weighted
	log    *logger.Logger

	mu    sync.Mutex
	cache *utils.LRU[string, *DecodedLayerSet]
	group singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
	shared atomic.Int64
}

// NewStore creates a layer store. ioWorkers bounds concurrent asset fetch+decode across all templates.
func NewStore(source AssetSourceInterface, budgetBytes int64, ioWorkers int, log *logger.Logger) *Store {
	if ioWorkers < 1 {
		ioWorkers = 1
	}
	return &Store{
		LoadTimeout: DefaultLoadTimeout,
		source:      source,
		io:          semaphore.NewWeighted(int64(ioWorkers)),
		log:         logger.OrNop(log).With("component", "LayerStore"),
		cache:       utils.NewLRU[string, *DecodedLayerSet](budgetBytes, 0),
	}
}

// Ensure Store implements StoreInterface
var _ StoreInterface = (*Store)(nil)

// Resolve returns the decoded layers of tpl, from cache or by fetching and decoding them.
// Concurrent callers for the same template share one decode. Asset problems are ErrTemplateAsset.
func (s *Store) Resolve(ctx context.Context, tpl models.Template) (*DecodedLayerSet, error) {
	if set, ok := s.cached(tpl.ID); ok {
		s.hits.Add(1)
		return set, nil
	}

	// The decode outlives any single waiter so that an abandoned request does not fail the others.
	detached := context.WithoutCancel(ctx)
	timeout := s.LoadTimeout
	ch := s.group.DoChan(tpl.ID, func() (interface{}, error) {
		if set, ok := s.cached(tpl.ID); ok {
			return set, nil
		}
		s.misses.Add(1)

		loadCtx, cancel := withOptionalTimeout(detached, timeout)
		defer cancel()

		set, err := s.load(loadCtx, tpl)
		if err != nil && errors.Is(loadCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: loading layers of template %s exceeded %v", models.ErrTimeout, tpl.ID, timeout)
		}
		if err != nil {
			s.log.Warn("❌ Failed to resolve template layers", "templateId", tpl.ID, "error", err)
			return nil, err
		}

		s.mu.Lock()
		stored := s.cache.Add(tpl.ID, set, set.SizeBytes())
		s.mu.Unlock()
		if !stored {
			s.log.Warn("⚠️  Layer set exceeds cache budget, not cached",
				"templateId", tpl.ID, "size", humanize.IBytes(uint64(set.SizeBytes())))
		}
		return set, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			s.shared.Add(1)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*DecodedLayerSet), nil
	}
}

// Stats reports cache occupancy and counters.
func (s *Store) Stats() models.CacheStats {
	s.mu.Lock()
	entries, size, budget, evictions := s.cache.Len(), s.cache.Size(), s.cache.MaxBytes(), s.cache.Evictions()
	s.mu.Unlock()

	hits, misses := s.hits.Load(), s.misses.Load()
	stats := models.CacheStats{
		Entries:   entries,
		SizeBytes: size,
		Size:      humanize.IBytes(uint64(size)),
		Budget:    humanize.IBytes(uint64(budget)),
		Hits:      hits,
		Misses:    misses,
		Shared:    s.shared.Load(),
		Evictions: evictions,
	}
	if hits+misses > 0 {
		stats.HitRate = float64(hits) / float64(hits+misses)
	}
	return stats
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (s *Store) cached(id string) (*DecodedLayerSet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Get(id)
}

type layerSlot struct {
	name       string
	ref        string
	background uint8
	raw        image.Image
}

func (s *Store) load(ctx context.Context, tpl models.Template) (*DecodedLayerSet, error) {
	refs := tpl.LayerRefs
	slots := []*layerSlot{
		{name: "base", ref: refs.Base},
		{name: "displacement", ref: refs.Displacement, background: neutralDisplacement},
		{name: "mask", ref: refs.Mask, background: neutralMask},
		{name: "shadow", ref: refs.Shadow, background: neutralShadow},
		{name: "highlight", ref: refs.Highlight, background: neutralHighlight},
		{name: "texture", ref: refs.Texture, background: neutralTexture},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, slot := range slots {
		if slot.ref == "" {
			continue
		}
		slot := slot
		g.Go(func() error {
			if err := s.io.Acquire(gctx, 1); err != nil {
				return err
			}
			defer s.io.Release(1)

			data, err := s.source.Fetch(gctx, slot.ref)
			if err != nil {
				return fmt.Errorf("%w: template %s %s layer: %v", models.ErrTemplateAsset, tpl.ID, slot.name, err)
			}
			img, _, err := decodeRaster(data)
			if err != nil {
				return fmt.Errorf("%w: template %s %s layer: %v", models.ErrTemplateAsset, tpl.ID, slot.name, err)
			}
			slot.raw = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if slots[0].raw == nil || slots[1].raw == nil {
		return nil, fmt.Errorf("%w: template %s requires base and displacement layers", models.ErrTemplateAsset, tpl.ID)
	}

	set := &DecodedLayerSet{TemplateID: tpl.ID, Base: toNRGBA(slots[0].raw)}
	w, h := set.Width(), set.Height()

	set.Displacement = toLuminance(slots[1].raw, slots[1].background)
	if dw, dh := set.Displacement.Rect.Dx(), set.Displacement.Rect.Dy(); dw != w || dh != h {
		return nil, fmt.Errorf("%w: template %s displacement is %dx%d, base is %dx%d",
			models.ErrTemplateAsset, tpl.ID, dw, dh, w, h)
	}

	targets := []**image.Gray{&set.Mask, &set.Shadow, &set.Highlight, &set.Texture}
	for i, slot := range slots[2:] {
		if slot.raw == nil {
			continue
		}
		layer, err := fitToBase(toLuminance(slot.raw, slot.background), w, h)
		if err != nil {
			return nil, fmt.Errorf("%w: template %s %s layer: %v", models.ErrTemplateAsset, tpl.ID, slot.name, err)
		}
		*targets[i] = layer
	}

	s.log.Debug("✓ Template layers decoded", "templateId", tpl.ID,
		"width", w, "height", h, "size", humanize.IBytes(uint64(set.SizeBytes())))
	return set, nil
}
