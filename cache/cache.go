// Package cache keeps recent backend responses so a page submitted twice
// is not extracted and recorded twice.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/use-agent/pagedrop/models"
)

type entry struct {
	response  *models.BackendResponse
	createdAt time.Time
}

// Cache is an in-memory response cache, safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
	stop       chan struct{}
	stopOnce   sync.Once
}

// New creates a Cache holding at most maxEntries responses for ttl each.
// A background goroutine drops expired entries until Close is called.
func New(maxEntries int, ttl time.Duration) *Cache {
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
	if ttl > 0 {
		go c.cleanupLoop()
	}
	return c
}

// Key derives the cache key of a document processed with a profile.
func Key(html, profile string) string {
	h := sha256.New()
	h.Write([]byte(html))
	h.Write([]byte("|"))
	h.Write([]byte(profile))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a response stored under key that has not yet expired.
func (c *Cache) Get(key string) (*models.BackendResponse, bool) {
	if c == nil || c.maxEntries <= 0 || c.ttl <= 0 {
		return nil, false
	}
	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()
	if !ok || c.now().Sub(e.createdAt) > c.ttl {
		return nil, false
	}
	return e.response, true
}

// Set stores resp under key. At capacity an arbitrary entry is evicted.
func (c *Cache) Set(key string, resp *models.BackendResponse) {
	if c == nil || c.maxEntries <= 0 || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}
	c.store[key] = &entry{response: resp, createdAt: c.now()}
}

// Len reports how many entries are held, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Close stops the cleanup goroutine.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache) cleanupLoop() {
	interval := c.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *Cache) evictExpired() {
	cutoff := c.now().Add(-c.ttl)
	c.mu.Lock()
	for k, e := range c.store {
		if e.createdAt.Before(cutoff) {
			delete(c.store, k)
		}
	}
	c.mu.Unlock()
}
