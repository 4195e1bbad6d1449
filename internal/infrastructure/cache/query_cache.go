// Package cache holds server query responses in memory.
package cache

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cedarvest/dashboard-sync/internal/core/ports"
)

const cleanupInterval = time.Minute

var _ ports.QueryCache = (*QueryCache)(nil)

// QueryCache is an in-memory, TTL-bounded cache of query responses keyed by
// "scope" or "scope?params". Expired entries read as misses and are swept
// periodically.
type QueryCache struct {
	data map[string]*entry
	ttl  time.Duration
	mu   sync.RWMutex
	now  func() time.Time

	cleanup *time.Ticker
	done    chan struct{}
	once    sync.Once
}

type entry struct {
	value      any
	expiration time.Time
}

// New creates a QueryCache whose entries live for ttl.
func New(ttl time.Duration) *QueryCache {
	c := &QueryCache{
		data:    make(map[string]*entry),
		ttl:     ttl,
		now:     time.Now,
		cleanup: time.NewTicker(cleanupInterval),
		done:    make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Get retrieves a live value.
func (c *QueryCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.data[key]
	if !ok || c.now().After(e.expiration) {
		return nil, false
	}
	return e.value, true
}

// Set stores value with a fresh expiration.
func (c *QueryCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = &entry{value: value, expiration: c.now().Add(c.ttl)}
}

// SetAll rewrites every live entry under scope in place. A patched entry
// keeps its expiration: patching is not a refetch.
func (c *QueryCache) SetAll(scope string, update func(key string, value any) (any, bool)) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	patched := 0
	for key, e := range c.data {
		if !matches(key, scope) || now.After(e.expiration) {
			continue
		}
		if v, changed := update(key, e.value); changed {
			e.value = v
			patched++
		}
	}
	return patched
}

// Invalidate drops every entry under scope and returns how many were dropped.
func (c *QueryCache) Invalidate(scope string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key := range c.data {
		if matches(key, scope) {
			delete(c.data, key)
			n++
		}
	}
	return n
}

// Keys returns the cached keys in sorted order.
func (c *QueryCache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.data))
	for key := range c.data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Stop stops the cleanup goroutine.
func (c *QueryCache) Stop() {
	c.once.Do(func() {
		c.cleanup.Stop()
		close(c.done)
	})
}

func (c *QueryCache) cleanupLoop() {
	for {
		select {
		case <-c.cleanup.C:
			c.removeExpired()
		case <-c.done:
			return
		}
	}
}

func (c *QueryCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.data {
		if now.After(e.expiration) {
			delete(c.data, key)
		}
	}
}

// matches reports whether key is scope itself or a parameterised key under it.
func matches(key, scope string) bool {
	return key == scope || strings.HasPrefix(key, scope+"?")
}
