package cache

import (
	"sync"
	"time"
)

// Options configures a Cache
type Options struct {
	// TTL is the default lifetime of an entry; zero keeps entries until evicted
	TTL time.Duration
	// MaxItems bounds the number of entries; zero means unbounded
	MaxItems int
	// CleanupInterval is how often expired entries are purged; zero disables the janitor
	CleanupInterval time.Duration
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

func (e entry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Cache is a thread-safe in-memory cache with expiration
type Cache[V any] struct {
	mu    sync.RWMutex
	items map[string]entry[V]
	opts  Options

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// New creates a cache. When opts.CleanupInterval is set a janitor goroutine
// runs until Stop is called.
func New[V any](opts Options) *Cache[V] {
	c := &Cache[V]{
		items: make(map[string]entry[V]),
		opts:  opts,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}

	if opts.CleanupInterval > 0 {
		go c.janitor()
	} else {
		close(c.done)
	}
	return c
}

// Set adds an item with the default TTL
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.opts.TTL)
}

// SetWithTTL adds an item with a specific lifetime
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	e := entry[V]{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && c.opts.MaxItems > 0 && len(c.items) >= c.opts.MaxItems {
		c.evictOldest()
	}
	c.items[key] = e
}

// Get retrieves an unexpired item
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, found := c.items[key]
	if !found || e.expired(time.Now()) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Delete removes an item
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Count returns the number of items, including expired ones not purged yet
func (c *Cache[V]) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stop terminates the janitor and waits for it to exit. Safe to call twice.
func (c *Cache[V]) Stop() {
	c.once.Do(func() { close(c.stop) })
	<-c.done
}

func (c *Cache[V]) janitor() {
	defer close(c.done)

	ticker := time.NewTicker(c.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache[V]) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for k, e := range c.items {
		if e.expired(now) {
			delete(c.items, k)
		}
	}
}

// evictOldest drops the entry closest to expiry; entries without expiry go last.
func (c *Cache[V]) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for k, e := range c.items {
		if !found || (!e.expiresAt.IsZero() && (oldest.IsZero() || e.expiresAt.Before(oldest))) {
			oldestKey, oldest, found = k, e.expiresAt, true
		}
	}
	if !found {
		return
	}
	delete(c.items, oldestKey)
}
