package gtfs

import (
	"context"
	"io"
	"time"

	"github.com/bluele/gcache"
)

// CachedStore keeps recently looked up entities of a slower Store in a local
// LRU cache with a TTL. Misses are not cached.
type CachedStore struct {
	next  Store
	cache gcache.Cache
}

// NewCachedStore wraps next with a cache of size entries expiring after ttl.
func NewCachedStore(next Store, size int, ttl time.Duration) *CachedStore {
	return &CachedStore{
		next:  next,
		cache: gcache.New(size).LRU().Expiration(ttl).Build(),
	}
}

func (c *CachedStore) Route(ctx context.Context, id string) (Route, error) {
	return cachedLookup(c, "route:"+id, func() (Route, error) { return c.next.Route(ctx, id) })
}

func (c *CachedStore) Stop(ctx context.Context, id string) (Stop, error) {
	return cachedLookup(c, "stop:"+id, func() (Stop, error) { return c.next.Stop(ctx, id) })
}

func (c *CachedStore) Trip(ctx context.Context, id string) (Trip, error) {
	return cachedLookup(c, "trip:"+id, func() (Trip, error) { return c.next.Trip(ctx, id) })
}

// Import forwards to the wrapped store when it is an Importer and purges the cache.
func (c *CachedStore) Import(ctx context.Context, idx *Index) error {
	defer c.cache.Purge()
	if imp, ok := c.next.(Importer); ok {
		return imp.Import(ctx, idx)
	}
	return nil
}

// Close closes the wrapped store when it is closable.
func (c *CachedStore) Close() error {
	if cl, ok := c.next.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}

func cachedLookup[V any](c *CachedStore, key string, load func() (V, error)) (V, error) {
	if v, err := c.cache.Get(key); err == nil {
		if typed, ok := v.(V); ok {
			return typed, nil
		}
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	_ = c.cache.Set(key, v)
	return v, nil
}
