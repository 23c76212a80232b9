package secrets

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrEmptySecret = errors.New("secret source returned an empty value")

// Source fetches the current secret value from wherever it lives.
type Source interface {
	Fetch(ctx context.Context) (string, error)
}

// Cache holds one secret value and the time it was fetched. The value is
// refreshed lazily on the first Get after ttl has elapsed. A ttl of 0 means
// the value never expires.
type Cache struct {
	source Source
	ttl    time.Duration
	now    func() time.Time

	mu        sync.Mutex
	value     string
	fetchedAt time.Time
}

func NewCache(source Source, ttl time.Duration) *Cache {
	return &Cache{
		source: source,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (c *Cache) expired(now time.Time) bool {
	if c.fetchedAt.IsZero() {
		return true
	}
	return c.ttl > 0 && now.Sub(c.fetchedAt) >= c.ttl
}

// Get returns the cached value, refreshing it when expired. If the refresh
// fails and a previous value exists, the stale value is returned with the error.
func (c *Cache) Get(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if !c.expired(now) {
		return c.value, nil
	}
	value, err := c.source.Fetch(ctx)
	if err == nil && value == "" {
		err = ErrEmptySecret
	}
	if err != nil {
		return c.value, err
	}
	c.value = value
	c.fetchedAt = now
	return value, nil
}

// Invalidate forces the next Get to refetch.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}

// StaticSource always returns the same value.
type StaticSource string

func (s StaticSource) Fetch(context.Context) (string, error) {
	return string(s), nil
}
