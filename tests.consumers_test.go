package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryQueue(t *testing.T) {
	q := NewMemoryQueue(4)
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, "other", InvalidationEvent{Key: "skipped"}))
	require.NoError(t, q.Push(ctx, InvalidationQueue, InvalidationEvent{Key: "book_1"}))

	qid, event, err := q.Pop(ctx, InvalidationQueue)
	require.NoError(t, err)
	assert.Equal(t, InvalidationQueue, qid)
	assert.Equal(t, "book_1", event.Key)

	t.Run("pop honors context", func(t *testing.T) {
		cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, _, err := q.Pop(cctx, InvalidationQueue)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("push honors context when full", func(t *testing.T) {
		full := NewMemoryQueue(1)
		require.NoError(t, full.Push(ctx, InvalidationQueue, InvalidationEvent{Key: "a"}))
		cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, full.Push(cctx, InvalidationQueue, InvalidationEvent{Key: "b"}), context.DeadlineExceeded)
	})
}

func TestCacheInvalidator_Consume(t *testing.T) {
	store := NewMockCacheStore()
	qc := NewQueryCache(zap.NewNop(), store, time.Minute, false)
	q := NewMemoryQueue(8)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, qc.Set(ctx, BookKey(1), BookDTO{ID: 1}))
	require.NoError(t, qc.Set(ctx, BookKey(2), BookDTO{ID: 2}))

	done := make(chan error, 1)
	go func() { done <- NewCacheInvalidator(zap.NewNop(), q, qc).Consume(ctx, InvalidationQueue) }()

	require.NoError(t, q.Push(ctx, InvalidationQueue, InvalidationEvent{Key: BookKey(1)}))
	assert.Eventually(t, func() bool { return !store.Has(BookKey(1)) }, time.Second, 10*time.Millisecond)
	assert.True(t, store.Has(BookKey(2)))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}
