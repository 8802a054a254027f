// Package memo implements the MEMO_RECORD / MEMO_REPLAY subtree
// memoization mechanism (spec §6): a bounded cache that lets the encoder
// recognize a previously-emitted subtree and replay it by ordinal instead
// of re-encoding it, and lets the decoder look that ordinal back up.
package memo

import "github.com/astenc/binjs/pkg/alg/lru"

// cache wraps the generic LRU cache with the single-capacity-limit shape
// Recorder/Replayer need; capacity<=0 means unbounded, which the
// underlying cache doesn't support directly, so that case falls back to
// a plain map with no eviction.
type cache[K comparable, V any] struct {
	bounded   *lru.Cache[K, V]
	unbounded map[K]V
}

func newCache[K comparable, V any](capacity int) *cache[K, V] {
	if capacity <= 0 {
		return &cache[K, V]{unbounded: make(map[K]V)}
	}

	return &cache[K, V]{bounded: lru.New(lru.WithMaxEntries[K, V](capacity))}
}

func (c *cache[K, V]) get(key K) (V, bool) {
	if c.bounded != nil {
		return c.bounded.Get(key)
	}

	v, ok := c.unbounded[key]

	return v, ok
}

func (c *cache[K, V]) put(key K, val V) {
	if c.bounded != nil {
		c.bounded.Put(key, val)

		return
	}

	c.unbounded[key] = val
}

func (c *cache[K, V]) len() int {
	if c.bounded != nil {
		return c.bounded.Len()
	}

	return len(c.unbounded)
}
