// Package dedupe remembers which render requests a worker already took, so a
// redelivered Kafka message does not render the same job twice.
package dedupe

import (
	"sync"
	"time"
)

type claim struct {
	key string
	at  time.Time
}

// Cache is a bounded, expiring set of claimed job ids. Oldest claims are
// dropped first when it is full.
type Cache struct {
	mu       sync.Mutex
	claimed  map[string]time.Time
	order    []claim
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

func NewCache(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{
		claimed:  make(map[string]time.Time, capacity),
		order:    make([]claim, 0, capacity),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Claim marks key as taken and reports whether this caller got it. A key
// claimed within the ttl window cannot be claimed again.
func (c *Cache) Claim(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if at, ok := c.claimed[key]; ok && now.Sub(at) <= c.ttl {
		return false
	}
	c.claimed[key] = now
	c.order = append(c.order, claim{key: key, at: now})
	c.evict(now)
	return true
}

// Release gives a claim back, e.g. when the work failed before it started
// and the message will be redelivered.
func (c *Cache) Release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.claimed, key)
}

// size reports the number of live claims.
func (c *Cache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.claimed)
}

func (c *Cache) evict(now time.Time) {
	cutoff := now.Add(-c.ttl)
	for len(c.order) > 0 && (len(c.claimed) > c.capacity || c.order[0].at.Before(cutoff)) {
		oldest := c.order[0]
		c.order = c.order[1:]
		// a released and re-claimed key has a newer timestamp; keep it
		if at, ok := c.claimed[oldest.key]; ok && at.Equal(oldest.at) {
			delete(c.claimed, oldest.key)
		}
	}
}
