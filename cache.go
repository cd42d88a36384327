package main

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CacheStore is a key/value backend with per-entry expiration.
// Get returns ErrCacheMiss when the key is absent or expired.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// QueryCache stores serialized query results under derived keys.
// Lookups never fail the caller: any backend or decoding problem
// is reported as a miss so reads fall back to the record store.
type QueryCache struct {
	logger *zap.Logger
	store  CacheStore
	ttl    time.Duration
	group  *singleflight.Group
}

// NewQueryCache provides a query cache on top of the given backend. When dedupe
// is set, concurrent misses on one key share a single store fetch.
func NewQueryCache(logger *zap.Logger, store CacheStore, ttl time.Duration, dedupe bool) *QueryCache {
	qc := &QueryCache{
		logger: logger,
		store:  store,
		ttl:    ttl,
	}
	if dedupe {
		qc.group = &singleflight.Group{}
	}
	return qc
}

// Get looks up key and decodes the stored value into dest.
// It reports whether dest was populated.
func (qc *QueryCache) Get(ctx context.Context, key string, dest interface{}) bool {
	data, err := qc.store.Get(ctx, key)
	if errors.Is(err, ErrCacheMiss) {
		qc.logger.Debug("cache: miss", zap.String("cache.key", key))
		return false
	}
	if err != nil {
		qc.logger.Warn("cache: backend lookup failed", zap.String("cache.key", key), zap.Error(err))
		return false
	}

	if err = canonicalJSON.Unmarshal(data, dest); err != nil {
		qc.logger.Warn("cache: failed to decode entry", zap.String("cache.key", key), zap.Error(err))
		if derr := qc.store.Delete(ctx, key); derr != nil {
			qc.logger.Warn("cache: failed to drop undecodable entry", zap.String("cache.key", key), zap.Error(derr))
		}
		return false
	}
	qc.logger.Debug("cache: hit", zap.String("cache.key", key))
	return true
}

// Set encodes value and stores it under key with the configured ttl.
func (qc *QueryCache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := canonicalJSON.Marshal(value)
	if err != nil {
		return err
	}
	return qc.store.Set(ctx, key, data, qc.ttl)
}

// Remove deletes the entry stored under key. Removing an absent key is not an error.
func (qc *QueryCache) Remove(ctx context.Context, key string) error {
	return qc.store.Delete(ctx, key)
}

// ReadThrough serves key from the cache or fetches it, stores it and
// returns it. Fetch errors are returned as is and never cached. A shared
// fill outlives the caller that started it, each caller still returns
// when its own context ends.
func ReadThrough[T any](ctx context.Context, qc *QueryCache, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	var value T
	if qc.Get(ctx, key, &value) {
		return value, nil
	}

	fill := func(ctx context.Context) (T, error) {
		v, err := fetch(ctx)
		if err != nil {
			return v, err
		}
		if err = qc.Set(ctx, key, v); err != nil {
			qc.logger.Warn("cache: failed to store entry", zap.String("cache.key", key), zap.Error(err))
		}
		return v, nil
	}

	if qc.group == nil {
		return fill(ctx)
	}

	fillCtx := context.WithoutCancel(ctx)
	ch := qc.group.DoChan(key, func() (interface{}, error) {
		return fill(fillCtx)
	})
	select {
	case <-ctx.Done():
		return value, ctx.Err()
	case res := <-ch:
		if res.Shared {
			qc.logger.Debug("cache: shared fill", zap.String("cache.key", key))
		}
		if res.Err != nil {
			return value, res.Err
		}
		return res.Val.(T), nil
	}
}
