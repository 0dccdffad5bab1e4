package repository

import (
	"context"
	"time"

	"github.com/zjrosen/composer/internal/cachemanager"
	"github.com/zjrosen/composer/internal/part"
	"github.com/zjrosen/composer/internal/typesystem"
)

type cacheKey string

func keyOf(id *typesystem.TypeIdentity) cacheKey {
	return cacheKey(id.Key())
}

// Cached is a read-through TTL cache in front of a slower Reader such as the
// SQLite store. Failed lookups are not cached.
type Cached struct {
	source    Reader
	typeCache *cachemanager.InMemoryCacheManager[cacheKey, *typesystem.TypeDefinition]
	partCache *cachemanager.InMemoryCacheManager[cacheKey, *part.Definition]
	types     *cachemanager.ReadThroughCache[cacheKey, *typesystem.TypeDefinition, *typesystem.TypeIdentity]
	parts     *cachemanager.ReadThroughCache[cacheKey, *part.Definition, *typesystem.TypeIdentity]
}

var _ Reader = (*Cached)(nil)

// NewCached wraps source. Zero durations use the cachemanager defaults.
func NewCached(source Reader, expiration, cleanup time.Duration) *Cached {
	c := &Cached{
		source:    source,
		typeCache: cachemanager.NewInMemoryCacheManager[cacheKey, *typesystem.TypeDefinition]("type-definitions", expiration, cleanup),
		partCache: cachemanager.NewInMemoryCacheManager[cacheKey, *part.Definition]("part-definitions", expiration, cleanup),
	}
	c.types = cachemanager.NewReadThroughCache(c.typeCache, keyOf,
		func(_ context.Context, id *typesystem.TypeIdentity) (*typesystem.TypeDefinition, error) {
			return source.TypeDefinition(id)
		}, expiration, false)
	c.parts = cachemanager.NewReadThroughCache(c.partCache, keyOf,
		func(_ context.Context, id *typesystem.TypeIdentity) (*part.Definition, error) {
			return source.Part(id)
		}, expiration, false)
	return c
}

// TypeDefinition returns the cached definition, loading it on a miss.
func (c *Cached) TypeDefinition(id *typesystem.TypeIdentity) (*typesystem.TypeDefinition, error) {
	if id == nil {
		return nil, typesystem.ErrNilType
	}
	return c.types.Get(context.Background(), id)
}

// Part returns the cached part definition, loading it on a miss.
func (c *Cached) Part(id *typesystem.TypeIdentity) (*part.Definition, error) {
	if id == nil {
		return nil, typesystem.ErrNilType
	}
	return c.parts.GetWithRefresh(context.Background(), id)
}

// IsSubtypeOf walks inheritance through the cache.
func (c *Cached) IsSubtypeOf(child, parent *typesystem.TypeIdentity) bool {
	return IsSubtypeOf(c, child, parent)
}

// Invalidate drops the cached entries of ids.
func (c *Cached) Invalidate(ids ...*typesystem.TypeIdentity) {
	ctx := context.Background()
	_ = c.types.Invalidate(ctx, ids...)
	_ = c.parts.Invalidate(ctx, ids...)
}

// Flush empties both caches.
func (c *Cached) Flush() {
	ctx := context.Background()
	_ = c.typeCache.Flush(ctx)
	_ = c.partCache.Flush(ctx)
}

// Stats returns combined hit and miss counts.
func (c *Cached) Stats() cachemanager.Stats {
	t, p := c.typeCache.Stats(), c.partCache.Stats()
	return cachemanager.Stats{Hits: t.Hits + p.Hits, Misses: t.Misses + p.Misses}
}
