package main

import (
	"context"

	"go.uber.org/zap"
)

type Consumer interface {
	Consume(ctx context.Context, qids ...string) error
}

// cacheInvalidator removes the cached entries named by the popped events.
type cacheInvalidator struct {
	logger *zap.Logger
	queue  Queuer
	cache  *QueryCache
}

func NewCacheInvalidator(logger *zap.Logger, q Queuer, cache *QueryCache) Consumer {
	return &cacheInvalidator{logger, q, cache}
}

func (ci *cacheInvalidator) Consume(ctx context.Context, qids ...string) error {
	var event InvalidationEvent
	var err error
	var qid string
	for {
		qid, event, err = ci.queue.Pop(ctx, qids...)
		if err != nil && ctx.Err() != nil {
			ci.logger.Info("consumer: queue pop call: context is done: exit", zap.String("reason", ctx.Err().Error()))
			return nil
		}

		if err != nil {
			ci.logger.Error("consumer: error on queue pop call", zap.Error(err))
			continue
		}

		switch qid {
		case InvalidationQueue:
			if err = ci.cache.Remove(ctx, event.Key); err != nil {
				ci.logger.Error("consumer: failed to remove cache entry", zap.String("cache.key", event.Key), zap.Error(err))
				continue
			}
			ci.logger.Debug("consumer: removed cache entry", zap.String("cache.key", event.Key))
		default:
			ci.logger.Warn("consumer: received event on unknow queue id", zap.String("qid", qid), zap.String("cache.key", event.Key))
		}
	}
}
