package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRUEvictsByWeight(t *testing.T) {
	t.Parallel()

	c := NewLRU[string, int](100, 0)
	assert.True(t, c.Add("a", 1, 40))
	assert.True(t, c.Add("b", 2, 40))

	// Touch a so b becomes the eviction candidate
	_, ok := c.Get("a")
	assert.True(t, ok)

	assert.True(t, c.Add("c", 3, 40))

	_, ok = c.Get("b")
	assert.False(t, ok)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, int64(80), c.Size())
	assert.Equal(t, int64(1), c.Evictions())
}

func TestLRUEvictsByCount(t *testing.T) {
	t.Parallel()

	c := NewLRU[int, string](1<<20, 2)
	c.Add(1, "one", 1)
	c.Add(2, "two", 1)
	c.Add(3, "three", 1)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get(1)
	assert.False(t, ok)
}

func TestLRURejectsOversizedValue(t *testing.T) {
	t.Parallel()

	c := NewLRU[string, int](10, 0)
	c.Add("small", 1, 5)
	assert.False(t, c.Add("huge", 2, 11))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, int64(5), c.Size())
}

func TestLRUReplaceUpdatesWeight(t *testing.T) {
	t.Parallel()

	c := NewLRU[string, int](100, 0)
	c.Add("a", 1, 10)
	c.Add("a", 2, 30)

	v, _ := c.Get("a")
	assert.Equal(t, 2, v)
	assert.Equal(t, int64(30), c.Size())
	assert.Equal(t, 1, c.Len())

	c.Remove("a")
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int64(0), c.Size())
}
