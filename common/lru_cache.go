// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"fmt"
	"sync"
)

// LruCache is a size-bounded map evicting the least recently used entry
// once its capacity is reached. It is not safe for concurrent use; see
// SyncedLruCache for a locked variant.
type LruCache[K comparable, V any] struct {
	cache    map[K]*entry[K, V]
	capacity int
	head     *entry[K, V]
	tail     *entry[K, V]
}

// NewLruCache returns a new instance. The capacity must be positive.
func NewLruCache[K comparable, V any](capacity int) *LruCache[K, V] {
	if capacity <= 0 {
		panic(fmt.Sprintf("invalid LRU cache capacity: %d", capacity))
	}
	return &LruCache[K, V]{
		cache:    make(map[K]*entry[K, V], capacity),
		capacity: capacity,
	}
}

// Get returns a value from the cache and marks it as recently used.
func (c *LruCache[K, V]) Get(key K) (V, bool) {
	item, exists := c.cache[key]
	if !exists {
		var zero V
		return zero, false
	}
	c.touch(item)
	return item.val, true
}

// Set associates a value with the given key. If the key is new and the
// cache is full, the least recently used entry is evicted and returned.
func (c *LruCache[K, V]) Set(key K, val V) (evictedKey K, evictedValue V, evicted bool) {
	if item, exists := c.cache[key]; exists {
		item.val = val
		c.touch(item)
		return
	}

	var item *entry[K, V]
	if len(c.cache) >= c.capacity {
		item = c.dropLast() // reuse the evicted entry
		evictedKey, evictedValue, evicted = item.key, item.val, true
	} else {
		item = new(entry[K, V])
	}
	item.key = key
	item.val = val
	c.cache[key] = item
	c.pushFront(item)
	return
}

// Remove deletes the key from the cache and returns the removed value.
func (c *LruCache[K, V]) Remove(key K) (V, bool) {
	item, exists := c.cache[key]
	if !exists {
		var zero V
		return zero, false
	}
	delete(c.cache, key)
	c.unlink(item)
	return item.val, true
}

// Len returns the number of entries currently cached.
func (c *LruCache[K, V]) Len() int {
	return len(c.cache)
}

// Capacity returns the maximum number of entries retained.
func (c *LruCache[K, V]) Capacity() int {
	return c.capacity
}

// Clear drops all entries.
func (c *LruCache[K, V]) Clear() {
	if len(c.cache) > 0 {
		c.cache = make(map[K]*entry[K, V], c.capacity)
	}
	c.head = nil
	c.tail = nil
}

// touch moves the entry to the head of the usage queue.
func (c *LruCache[K, V]) touch(item *entry[K, V]) {
	if item == c.head {
		return
	}
	c.unlink(item)
	c.pushFront(item)
}

func (c *LruCache[K, V]) pushFront(item *entry[K, V]) {
	item.prev = nil
	item.next = c.head
	if c.head != nil {
		c.head.prev = item
	}
	c.head = item
	if c.tail == nil {
		c.tail = item
	}
}

func (c *LruCache[K, V]) unlink(item *entry[K, V]) {
	if item.prev != nil {
		item.prev.next = item.next
	} else {
		c.head = item.next
	}
	if item.next != nil {
		item.next.prev = item.prev
	} else {
		c.tail = item.prev
	}
	item.prev = nil
	item.next = nil
}

// dropLast removes the tail of the queue and returns it.
func (c *LruCache[K, V]) dropLast() *entry[K, V] {
	dropped := c.tail
	delete(c.cache, dropped.key)
	c.unlink(dropped)
	return dropped
}

// entry is a cache item wrapping a key, a value and references to previous and next elements.
type entry[K comparable, V any] struct {
	key  K
	val  V
	prev *entry[K, V]
	next *entry[K, V]
}

// SyncedLruCache wraps an LruCache with a lock and keeps hit/miss counters.
type SyncedLruCache[K comparable, V any] struct {
	mu     sync.Mutex
	cache  *LruCache[K, V]
	hits   uint64
	misses uint64
}

// NewSyncedLruCache creates a thread-safe LRU cache of the given capacity.
func NewSyncedLruCache[K comparable, V any](capacity int) *SyncedLruCache[K, V] {
	return &SyncedLruCache[K, V]{cache: NewLruCache[K, V](capacity)}
}

func (c *SyncedLruCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	val, found := c.cache.Get(key)
	if found {
		c.hits++
	} else {
		c.misses++
	}
	return val, found
}

func (c *SyncedLruCache[K, V]) Set(key K, val V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Set(key, val)
}

func (c *SyncedLruCache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Remove(key)
}

func (c *SyncedLruCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}

func (c *SyncedLruCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Clear()
}

// Stats returns the number of hits and misses observed by Get.
func (c *SyncedLruCache[K, V]) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
