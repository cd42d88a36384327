package main

import (
	"context"
	"time"

	"github.com/viccon/sturdyc"
	"go.uber.org/zap"
)

// memoryEvictionPercentage is the share of a full shard evicted to make room.
const memoryEvictionPercentage = 10

type memoryCacheStore struct {
	logger *zap.Logger
	client *sturdyc.Client[[]byte]
}

// NewMemoryCacheStore provides an in-process cache backend. Entries
// expire after ttl. sturdyc sets the ttl once for the whole client so
// the per-entry ttl passed to Set is not used.
func NewMemoryCacheStore(logger *zap.Logger, config *CacheConfig) CacheStore {
	client := sturdyc.New[[]byte](
		config.MemoryCapacity,
		config.MemoryShards,
		config.TTL,
		memoryEvictionPercentage,
		sturdyc.WithEvictionInterval(config.TTL),
	)
	return &memoryCacheStore{
		logger: logger,
		client: client,
	}
}

// Get retrieves the value stored under key.
func (ms *memoryCacheStore) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := ms.client.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	return value, nil
}

// Set stores value under key.
func (ms *memoryCacheStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	ms.client.Set(key, value)
	return nil
}

// Delete removes key if it exists.
func (ms *memoryCacheStore) Delete(_ context.Context, key string) error {
	ms.client.Delete(key)
	return nil
}
