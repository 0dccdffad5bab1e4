package cachemanager

import (
	"context"
	"time"
)

// ReadThroughCache loads values through fn on a miss and stores successful results.
// Errors are never cached.
type ReadThroughCache[K comparable, V any, I any] struct {
	cache           CacheManager[K, V]
	keyOf           func(I) K
	fn              func(ctx context.Context, input I) (V, error)
	ttl             time.Duration
	shouldSkipCache bool
}

func NewReadThroughCache[K comparable, V any, I any](
	cache CacheManager[K, V],
	keyOf func(I) K,
	fn func(ctx context.Context, input I) (V, error),
	ttl time.Duration,
	shouldSkipCache bool,
) *ReadThroughCache[K, V, I] {
	return &ReadThroughCache[K, V, I]{
		cache:           cache,
		keyOf:           keyOf,
		fn:              fn,
		ttl:             ttl,
		shouldSkipCache: shouldSkipCache,
	}
}

func (r *ReadThroughCache[K, V, I]) Get(ctx context.Context, input I) (V, error) {
	if r.shouldSkipCache {
		return r.fn(ctx, input)
	}

	key := r.keyOf(input)
	if value, ok := r.cache.Get(ctx, key); ok {
		return value, nil
	}
	return r.load(ctx, key, input)
}

func (r *ReadThroughCache[K, V, I]) GetWithRefresh(ctx context.Context, input I) (V, error) {
	if r.shouldSkipCache {
		return r.fn(ctx, input)
	}

	key := r.keyOf(input)
	if value, ok := r.cache.GetWithRefresh(ctx, key, r.ttl); ok {
		return value, nil
	}
	return r.load(ctx, key, input)
}

// Invalidate drops the cached values for inputs.
func (r *ReadThroughCache[K, V, I]) Invalidate(ctx context.Context, inputs ...I) error {
	keys := make([]K, 0, len(inputs))
	for _, in := range inputs {
		keys = append(keys, r.keyOf(in))
	}
	return r.cache.Delete(ctx, keys...)
}

func (r *ReadThroughCache[K, V, I]) load(ctx context.Context, key K, input I) (V, error) {
	value, err := r.fn(ctx, input)
	if err != nil {
		return value, err
	}
	r.cache.Set(ctx, key, value, r.ttl)
	return value, nil
}
