package rendercache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStoreRoundTripAndExpiry(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	store, err := NewRedisStore(context.Background(), mr.Addr(), time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "fp", entry("bytes")))
	got, ok, err := store.Get(ctx, "fp")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entry("bytes"), got)
	assert.True(t, mr.Exists(redisKeyPrefix+"fp"))

	mr.FastForward(2 * time.Minute)
	_, ok, err = store.Get(ctx, "fp")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStoreRejectsCorruptEntries(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	store, err := NewRedisStore(context.Background(), mr.Addr(), time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, mr.Set(redisKeyPrefix+"fp", "{not json"))
	_, ok, err := store.Get(context.Background(), "fp")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestNewRedisStoreRequiresAddress(t *testing.T) {
	t.Parallel()

	_, err := NewRedisStore(context.Background(), " ", time.Minute)
	assert.Error(t, err)
}
