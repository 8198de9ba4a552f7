package rendercache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soundprint-mockup/models"
)

func entry(payload string) Entry {
	return Entry{Bytes: []byte(payload), Format: models.FormatPNG, RenderTimeMs: 7}
}

func TestComputeOrWaitIsIdempotent(t *testing.T) {
	t.Parallel()

	c := New(1<<20, 100, nil, nil)
	var calls atomic.Int32
	fn := func(context.Context) (Entry, error) {
		calls.Add(1)
		return entry("render"), nil
	}

	first, cached, err := c.ComputeOrWait(context.Background(), "fp", fn)
	require.NoError(t, err)
	assert.False(t, cached)

	second, cached, err := c.ComputeOrWait(context.Background(), "fp", fn)
	require.NoError(t, err)
	assert.True(t, cached)

	assert.Equal(t, first.Bytes, second.Bytes)
	assert.EqualValues(t, 1, calls.Load())

	got, ok := c.Get(context.Background(), "fp")
	require.True(t, ok)
	assert.Equal(t, "render", string(got.Bytes))
}

func TestComputeOrWaitConcurrentCallersShareOneComputation(t *testing.T) {
	t.Parallel()

	c := New(1<<20, 100, nil, nil)
	var calls atomic.Int32
	release := make(chan struct{})
	fn := func(context.Context) (Entry, error) {
		calls.Add(1)
		<-release
		return entry("shared-render"), nil
	}

	type outcome struct {
		e      Entry
		cached bool
		err    error
	}
	results := make([]outcome, 2)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, cached, err := c.ComputeOrWait(context.Background(), "same-fp", fn)
			results[i] = outcome{e, cached, err}
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
	require.NoError(t, results[0].err)
	require.NoError(t, results[1].err)
	assert.Equal(t, results[0].e.Bytes, results[1].e.Bytes)
	// Exactly one caller computed
	assert.NotEqual(t, results[0].cached, results[1].cached)
}

func TestComputeOrWaitDoesNotCacheFailures(t *testing.T) {
	t.Parallel()

	c := New(1<<20, 100, nil, nil)
	boom := errors.New("encode failed")

	_, _, err := c.ComputeOrWait(context.Background(), "fp", func(context.Context) (Entry, error) {
		return Entry{}, boom
	})
	assert.ErrorIs(t, err, boom)

	_, ok := c.Get(context.Background(), "fp")
	assert.False(t, ok)

	e, cached, err := c.ComputeOrWait(context.Background(), "fp", func(context.Context) (Entry, error) {
		return entry("retry"), nil
	})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "retry", string(e.Bytes))
}

func TestComputeOrWaitFailureReachesEveryWaiter(t *testing.T) {
	t.Parallel()

	c := New(1<<20, 100, nil, nil)
	boom := errors.New("layer decode failed")
	release := make(chan struct{})
	fn := func(context.Context) (Entry, error) {
		<-release
		return Entry{}, boom
	}

	errs := make([]error, 3)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = c.ComputeOrWait(context.Background(), "fp", fn)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, err := range errs {
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, 0, c.Stats().Entries)
}

func TestComputeOrWaitWaiterHonoursContext(t *testing.T) {
	t.Parallel()

	c := New(1<<20, 100, nil, nil)
	release := make(chan struct{})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _, err := c.ComputeOrWait(ctx, "slow", func(context.Context) (Entry, error) {
		<-release
		return entry("late"), nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestComputeOrWaitHungComputationTimesOut(t *testing.T) {
	t.Parallel()

	c := New(1<<20, 100, nil, nil)
	c.ComputeTimeout = 20 * time.Millisecond

	hung := func(ctx context.Context) (Entry, error) {
		<-ctx.Done()
		return Entry{}, ctx.Err()
	}
	_, _, err := c.ComputeOrWait(context.Background(), "fp", hung)
	require.ErrorIs(t, err, models.ErrTimeout)
	assert.Equal(t, models.ReasonTimeout, models.ReasonFor(err))

	// The fingerprint is free again once the stuck computation is abandoned
	got, cached, err := c.ComputeOrWait(context.Background(), "fp", func(context.Context) (Entry, error) {
		return entry("render"), nil
	})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "render", string(got.Bytes))
}

func TestCacheEvictsByEntryCount(t *testing.T) {
	t.Parallel()

	c := New(1<<20, 2, nil, nil)
	for _, fp := range []string{"a", "b", "c"} {
		fp := fp
		_, _, err := c.ComputeOrWait(context.Background(), fp, func(context.Context) (Entry, error) {
			return entry(fp), nil
		})
		require.NoError(t, err)
	}

	stats := c.Stats()
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, int64(1), stats.Evictions)
	assert.Equal(t, int64(3), stats.Misses)

	_, ok := c.Get(context.Background(), "a")
	assert.False(t, ok)
}

func TestCacheFallsBackToRedis(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	store, err := NewRedisStore(context.Background(), mr.Addr(), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	// One instance renders and publishes to Redis
	producer := New(1<<20, 100, store, nil)
	_, _, err = producer.ComputeOrWait(context.Background(), "fp", func(context.Context) (Entry, error) {
		return entry("from-redis"), nil
	})
	require.NoError(t, err)

	// A second instance with a cold memory tier reads it back without computing
	consumer := New(1<<20, 100, store, nil)
	e, cached, err := consumer.ComputeOrWait(context.Background(), "fp", func(context.Context) (Entry, error) {
		t.Error("compute must not run on a second-tier hit")
		return Entry{}, nil
	})
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, "from-redis", string(e.Bytes))
	assert.Equal(t, 1, consumer.Stats().Entries)
}

func TestCacheSurvivesRedisOutage(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	store, err := NewRedisStore(context.Background(), mr.Addr(), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	mr.Close()

	c := New(1<<20, 100, store, nil)
	e, cached, err := c.ComputeOrWait(context.Background(), "fp", func(context.Context) (Entry, error) {
		return entry("local"), nil
	})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "local", string(e.Bytes))
}
