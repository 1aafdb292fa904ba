// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

// Package cache provides a bounded LRU set with TTL, used by the stream
// layer to remember recently seen event IDs for optional deduplication.
package cache

import (
	"sync"
	"time"
)

type lruEntry struct {
	key       string
	prev      *lruEntry
	next      *lruEntry
	expiresAt time.Time
}

// LRUCache is a thread-safe least-recently-used key set with TTL.
// All operations are O(1): a doubly-linked list keeps recency order and a
// map gives direct lookup.
type LRUCache struct {
	mu sync.Mutex

	capacity int
	ttl      time.Duration

	items map[string]*lruEntry

	// head.next is most recently used, tail.prev is least recently used.
	head *lruEntry
	tail *lruEntry

	hits   int64
	misses int64
}

// NewLRUCache creates an LRU cache with the given capacity and TTL.
func NewLRUCache(capacity int, ttl time.Duration) *LRUCache {
	if capacity <= 0 {
		capacity = 10000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	c := &LRUCache{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*lruEntry, capacity),
		head:     &lruEntry{},
		tail:     &lruEntry{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// IsDuplicate records the key and reports whether it was already present
// and unexpired. A single call both checks and remembers, which is the
// shape the deduplication middleware needs.
func (c *LRUCache) IsDuplicate(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if entry, ok := c.items[key]; ok {
		if now.Before(entry.expiresAt) {
			c.moveToFront(entry)
			c.hits++
			return true
		}
		c.removeEntry(entry)
	}

	c.misses++
	c.insert(key, now.Add(c.ttl))
	return false
}

// Contains reports whether the key is present and unexpired, without
// recording it or updating recency.
func (c *LRUCache) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items[key]
	return ok && time.Now().Before(entry.expiresAt)
}

// Len returns the current number of entries, including expired ones not
// yet lazily evicted.
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns hit and miss counts.
func (c *LRUCache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *LRUCache) insert(key string, expiresAt time.Time) {
	if len(c.items) >= c.capacity {
		c.removeEntry(c.tail.prev)
	}

	entry := &lruEntry{key: key, expiresAt: expiresAt}
	c.items[key] = entry
	c.pushFront(entry)
}

func (c *LRUCache) pushFront(entry *lruEntry) {
	entry.prev = c.head
	entry.next = c.head.next
	c.head.next.prev = entry
	c.head.next = entry
}

func (c *LRUCache) moveToFront(entry *lruEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	c.pushFront(entry)
}

func (c *LRUCache) removeEntry(entry *lruEntry) {
	if entry == c.head || entry == c.tail {
		return
	}
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	delete(c.items, entry.key)
}
