package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
	"go.uber.org/zap"
)

// Stored bolt values are prefixed with the big-endian unix
// nanoseconds expiration time. Zero means no expiration.
const boltExpiryHeaderSize = 8

type boltCacheStore struct {
	logger *zap.Logger
	client *bolt.DB
	config *BoltDBConfig
	clock  TickerClocker
}

// GetBoltDBClient setup the database and the bucket then provides a ready to use client.
func GetBoltDBClient(config *Config) (*bolt.DB, error) {
	db, err := bolt.Open(config.BoltDB.FilePath, 0o600, &bolt.Options{Timeout: config.BoltDB.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, errB := tx.CreateBucketIfNotExists([]byte(config.BoltDB.BucketName)); errB != nil {
			return fmt.Errorf("failed to create %s bucket: %v", config.BoltDB.BucketName, errB)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up bucket: %v", err)
	}
	return db, nil
}

// NewBoltCacheStore provides an instance of bolt-based cache backend.
func NewBoltCacheStore(logger *zap.Logger, boltConfig *BoltDBConfig, client *bolt.DB, clock TickerClocker) *boltCacheStore {
	return &boltCacheStore{
		logger: logger,
		client: client,
		config: boltConfig,
		clock:  clock,
	}
}

// Close shuts down the bolt-based cache backend.
func (bs *boltCacheStore) Close() error {
	return bs.client.Close()
}

func (bs *boltCacheStore) encode(value []byte, ttl time.Duration) []byte {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = bs.clock.Now().Add(ttl).UnixNano()
	}
	buf := make([]byte, boltExpiryHeaderSize+len(value))
	binary.BigEndian.PutUint64(buf, uint64(expiresAt))
	copy(buf[boltExpiryHeaderSize:], value)
	return buf
}

// expired tells if the stored entry is past its expiration time.
func (bs *boltCacheStore) expired(entry []byte, now time.Time) bool {
	if len(entry) < boltExpiryHeaderSize {
		return true
	}
	expiresAt := int64(binary.BigEndian.Uint64(entry[:boltExpiryHeaderSize]))
	return expiresAt != 0 && now.UnixNano() >= expiresAt
}

// Get retrieves the value stored under key from boltdb store.
func (bs *boltCacheStore) Get(_ context.Context, key string) ([]byte, error) {
	// initialize a readable transaction.
	tx, err := bs.client.Begin(false)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	result := tx.Bucket([]byte(bs.config.BucketName)).Get([]byte(key))
	if result == nil || bs.expired(result, bs.clock.Now()) {
		return nil, ErrCacheMiss
	}
	// bolt values are only valid for the life of the transaction.
	value := make([]byte, len(result)-boltExpiryHeaderSize)
	copy(value, result[boltExpiryHeaderSize:])
	return value, nil
}

// Set stores value under key into boltdb store.
func (bs *boltCacheStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := bs.encode(value, ttl)
	return bs.client.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bs.config.BucketName)).Put([]byte(key), entry)
	})
}

// Delete removes key from boltdb store.
func (bs *boltCacheStore) Delete(_ context.Context, key string) error {
	return bs.client.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bs.config.BucketName)).Delete([]byte(key))
	})
}

// Purge deletes all expired entries and returns how many were removed.
func (bs *boltCacheStore) Purge(_ context.Context) (int, error) {
	now := bs.clock.Now()
	count := 0
	err := bs.client.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bs.config.BucketName))
		// deleting while iterating makes the cursor skip entries.
		var keys [][]byte
		c := bucket.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if bs.expired(v, now) {
				keys = append(keys, append([]byte(nil), k...))
			}
		}
		for _, k := range keys {
			if err := bucket.Delete(k); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	return count, err
}

// Sweep purges expired entries at every interval until ctx is done.
func (bs *boltCacheStore) Sweep(ctx context.Context, interval time.Duration) error {
	ticker := bs.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			bs.logger.Info("cache: bolt sweeper: context is done: exit", zap.String("reason", ctx.Err().Error()))
			return nil
		case <-ticker.C:
			n, err := bs.Purge(ctx)
			if err != nil {
				bs.logger.Error("cache: bolt sweeper: failed to purge expired entries", zap.Error(err))
				continue
			}
			if n > 0 {
				bs.logger.Debug("cache: bolt sweeper: purged expired entries", zap.Int("count", n))
			}
		}
	}
}
