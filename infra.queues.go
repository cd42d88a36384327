package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Predefinied Queue IDs.
const (
	InvalidationQueue = "cache:invalidation"
)

var (
	_ Queuer = (*redisQueue)(nil)  // ensure redisQueue implements Queuer.
	_ Queuer = (*memoryQueue)(nil) // ensure memoryQueue implements Queuer.
)

// InvalidationEvent requests the removal of a cached entry.
type InvalidationEvent struct {
	Key string `json:"key"`
}

// Queuer describes a queue.
type Queuer interface {
	Push(ctx context.Context, qid string, event InvalidationEvent) error
	Pop(ctx context.Context, qids ...string) (string, InvalidationEvent, error)
}

// redisQueue represents a queue which implements the Queuer interface.
type redisQueue struct {
	client *redis.Client
}

func NewRedisQueue(client *redis.Client) Queuer {
	return &redisQueue{client: client}
}

// Push enqueues an event onto the queue identified by qid.
func (q *redisQueue) Push(ctx context.Context, qid string, event InvalidationEvent) error {
	eventBytes, err := canonicalJSON.Marshal(event)
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, qid, eventBytes).Err()
}

// Pop returns the first dequeued event from the list of queue ids.
// It blocks until an event is available or ctx is done.
func (q *redisQueue) Pop(ctx context.Context, qids ...string) (string, InvalidationEvent, error) {
	var event InvalidationEvent
	var qid string
	infos, err := q.client.BLPop(ctx, 0*time.Second, qids...).Result()
	if err != nil {
		return qid, event, err
	}

	if err = canonicalJSON.Unmarshal([]byte(infos[1]), &event); err != nil {
		return qid, event, err
	}
	qid = infos[0]
	return qid, event, nil
}

type queuedEvent struct {
	qid   string
	event InvalidationEvent
}

// memoryQueue is an in-process buffered queue shared by all queue ids.
type memoryQueue struct {
	ch chan queuedEvent
}

// NewMemoryQueue provides an in-process queue holding up to size pending events.
func NewMemoryQueue(size int) Queuer {
	return &memoryQueue{ch: make(chan queuedEvent, size)}
}

// Push enqueues an event. It blocks while the buffer is full unless ctx is done.
func (q *memoryQueue) Push(ctx context.Context, qid string, event InvalidationEvent) error {
	select {
	case q.ch <- queuedEvent{qid: qid, event: event}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pop returns the next event pushed onto one of qids. Events of
// other queue ids are discarded since a single consumer drains it.
func (q *memoryQueue) Pop(ctx context.Context, qids ...string) (string, InvalidationEvent, error) {
	for {
		select {
		case e := <-q.ch:
			if len(qids) == 0 || contains(qids, e.qid) {
				return e.qid, e.event, nil
			}
		case <-ctx.Done():
			return "", InvalidationEvent{}, ctx.Err()
		}
	}
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
