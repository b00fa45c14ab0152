// Package cache provides a small sharded TTL cache for assembled views.
package cache

import (
	"hash/fnv"
	"sync"
	"time"
)

const numShards = 16

// TTLCache caches rendered response documents keyed by string. Entries
// expire after the TTL passed to Set; expired entries are dropped on read.
type TTLCache struct {
	shards [numShards]*shard
}

type shard struct {
	mu    sync.RWMutex
	items map[string]entry
}

type entry struct {
	value     any
	expiresAt time.Time
}

// New creates an empty TTLCache.
func New() *TTLCache {
	c := &TTLCache{}
	for i := 0; i < numShards; i++ {
		c.shards[i] = &shard{items: make(map[string]entry)}
	}
	return c
}

func (c *TTLCache) getShard(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return c.shards[h.Sum32()%numShards]
}

// Set stores value under key for ttl. Non-positive ttl disables caching.
func (c *TTLCache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	s := c.getShard(key)
	s.mu.Lock()
	s.items[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()
}

// Get returns the cached value if present and fresh.
func (c *TTLCache) Get(key string) (any, bool) {
	s := c.getShard(key)
	s.mu.RLock()
	e, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		s.mu.Lock()
		delete(s.items, key)
		s.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Delete removes a key.
func (c *TTLCache) Delete(key string) {
	s := c.getShard(key)
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
}
