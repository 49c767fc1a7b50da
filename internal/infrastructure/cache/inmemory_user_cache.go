package cache

import (
	"context"
	"sync"
	"time"

	"github.com/offeringbowl/backend/internal/domain/identity"
)

type entry struct {
	user      identity.User
	expiresAt time.Time
}

// InMemoryUserCache implements UserCache in process memory. It is used for
// single-instance deployments, tests, and when Redis is unavailable.
type InMemoryUserCache struct {
	mu        sync.RWMutex
	entries   map[string]entry
	ttl       time.Duration
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryUserCache creates the cache and starts its cleanup goroutine
func NewInMemoryUserCache(ttl time.Duration) *InMemoryUserCache {
	c := &InMemoryUserCache{
		entries:  make(map[string]entry),
		ttl:      ttl,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop()

	return c
}

// Get implements UserCache
func (c *InMemoryUserCache) Get(_ context.Context, uid string) (*identity.User, error) {
	c.mu.RLock()
	e, ok := c.entries[uid]
	c.mu.RUnlock()

	if !ok || c.now().After(e.expiresAt) {
		return nil, ErrCacheMiss
	}
	user := e.user
	return &user, nil
}

// Set implements UserCache
func (c *InMemoryUserCache) Set(_ context.Context, uid string, user *identity.User) error {
	c.mu.Lock()
	c.entries[uid] = entry{user: *user, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}

// Delete implements UserCache
func (c *InMemoryUserCache) Delete(_ context.Context, uid string) error {
	c.mu.Lock()
	delete(c.entries, uid)
	c.mu.Unlock()
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (c *InMemoryUserCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

func (c *InMemoryUserCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *InMemoryUserCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for uid, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, uid)
		}
	}
}

// Size returns the number of entries, expired or not
func (c *InMemoryUserCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ UserCache = (*InMemoryUserCache)(nil)
