// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package cache

import (
	"context"
	"fmt"
	"time"
)

// Loader computes a value on a cache miss.
type Loader func(ctx context.Context) (interface{}, error)

// Cacher is the cache surface the engine components depend on.
//
// Implementations:
//   - *Cache: TTL cache with optional entry bound and single-flight loads
//   - *NoopCache: never stores, so every GetOrLoad runs its loader
//
// Thread Safety: Implementations must be safe for concurrent use.
//
// Example:
//
//	func NewScorer(..., c cache.Cacher, ...) *Scorer {
//	    if c == nil {
//	        c = cache.NewNoop()
//	    }
//	    ...
//	}
type Cacher interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{})
	SetWithTTL(key string, value interface{}, ttl time.Duration)
	Delete(key string)
	Clear()
	GetOrLoad(ctx context.Context, key string, ttl time.Duration, load Loader) (interface{}, error)
	GetStats() Stats
	HitRate() float64
}

// Load is the typed form of GetOrLoad.
//
// Parameters:
//   - ctx, key, ttl: As for Cacher.GetOrLoad
//   - c: Cache to read through
//   - load: Computes a T on a miss
//
// Returns:
//   - T: The cached or loaded value, or the zero T on any error
//   - error: The loader's error unchanged, ctx.Err(), or a type mismatch
//     when key already holds a value of another type
//
// Errors are never stored, so a loader can hand a usable value back to its
// caller without caching it by returning it inside an error type and
// unwrapping that with errors.As after Load returns.
//
// Thread Safety: As safe as c.
//
// Example:
//
//	detail, err := cache.Load(ctx, c, key, ttl, func(ctx context.Context) (models.ItemDetail, error) {
//	    return computeDetail(ctx, id)
//	})
func Load[T any](ctx context.Context, c Cacher, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	v, err := c.GetOrLoad(ctx, key, ttl, func(ctx context.Context) (interface{}, error) {
		return load(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache: key %q holds %T, want %T", key, v, zero)
	}
	return typed, nil
}

// NoopCache never stores anything. Every GetOrLoad invokes the loader.
type NoopCache struct{}

// NewNoop returns a cache that never hits.
func NewNoop() *NoopCache { return &NoopCache{} }

func (NoopCache) Get(string) (interface{}, bool) { return nil, false }
func (NoopCache) Set(string, interface{}) {}
func (NoopCache) SetWithTTL(string, interface{}, time.Duration) {}
func (NoopCache) Delete(string) {}
func (NoopCache) Clear() {}
func (NoopCache) GetStats() Stats { return Stats{} }
func (NoopCache) HitRate() float64 { return 0 }

func (NoopCache) GetOrLoad(ctx context.Context, _ string, _ time.Duration, load Loader) (interface{}, error) {
	return load(ctx)
}

// Verify interface implementations at compile time
var (
	_ Cacher = (*Cache)(nil)
	_ Cacher = (*NoopCache)(nil)
)
