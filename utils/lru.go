package utils

import "container/list"

// LRU is a least-recently-used map bounded by total weight (bytes) and, optionally, entry count.
// It is not safe for concurrent use; callers guard it with their own mutex.
type LRU[K comparable, V any] struct {
	maxBytes   int64
	maxEntries int
	size       int64
	evictions  int64
	ll         *list.List
	items      map[K]*list.Element
}

type lruEntry[K comparable, V any] struct {
	key   K
	value V
	size  int64
}

// NewLRU creates an LRU holding at most maxBytes of weight. maxEntries <= 0 means no count limit.
func NewLRU[K comparable, V any](maxBytes int64, maxEntries int) *LRU[K, V] {
	return &LRU[K, V]{
		maxBytes:   maxBytes,
		maxEntries: maxEntries,
		ll:         list.New(),
		items:      make(map[K]*list.Element),
	}
}

// Get returns the value for key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		return el.Value.(*lruEntry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Add stores value under key with the given weight, evicting from the cold end until the
// bounds hold. A value heavier than the whole budget is not stored and Add returns false.
func (c *LRU[K, V]) Add(key K, value V, size int64) bool {
	if size > c.maxBytes {
		return false
	}
	if el, ok := c.items[key]; ok {
		entry := el.Value.(*lruEntry[K, V])
		c.size += size - entry.size
		entry.value = value
		entry.size = size
		c.ll.MoveToFront(el)
	} else {
		c.items[key] = c.ll.PushFront(&lruEntry[K, V]{key: key, value: value, size: size})
		c.size += size
	}

	for c.size > c.maxBytes || (c.maxEntries > 0 && c.ll.Len() > c.maxEntries) {
		if !c.removeOldest() {
			break
		}
	}
	return true
}

// Remove drops key if present.
func (c *LRU[K, V]) Remove(key K) {
	if el, ok := c.items[key]; ok {
		c.removeElement(el)
	}
}

func (c *LRU[K, V]) Len() int         { return c.ll.Len() }
func (c *LRU[K, V]) Size() int64      { return c.size }
func (c *LRU[K, V]) MaxBytes() int64  { return c.maxBytes }
func (c *LRU[K, V]) Evictions() int64 { return c.evictions }

func (c *LRU[K, V]) removeOldest() bool {
	el := c.ll.Back()
	if el == nil {
		return false
	}
	c.removeElement(el)
	c.evictions++
	return true
}

func (c *LRU[K, V]) removeElement(el *list.Element) {
	entry := c.ll.Remove(el).(*lruEntry[K, V])
	delete(c.items, entry.key)
	c.size -= entry.size
}
