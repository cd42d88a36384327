package main

import (
	"context"

	"go.uber.org/zap"
)

type BookServiceProvider interface {
	List(ctx context.Context, query BookQuery) ([]BookDTO, error)
	GetOne(ctx context.Context, id int64) (BookDTO, error)
	Add(ctx context.Context, input CreateBookInput) (BookDTO, error)
	Update(ctx context.Context, id int64, input UpdateBookInput) (BookDTO, error)
	Delete(ctx context.Context, id int64) error
}

type MemberServiceProvider interface {
	List(ctx context.Context, query MemberQuery) ([]MemberDTO, error)
	GetOne(ctx context.Context, id int64) (MemberDTO, error)
	Add(ctx context.Context, input CreateMemberInput) (MemberDTO, error)
	Update(ctx context.Context, id int64, input UpdateMemberInput) (MemberDTO, error)
	Delete(ctx context.Context, id int64) error
}

// invalidator pushes cache invalidation events after successful writes.
type invalidator struct {
	logger  *zap.Logger
	enabled bool
	queue   Queuer
}

func (iv invalidator) invalidate(ctx context.Context, key string) {
	if !iv.enabled {
		return
	}
	if err := iv.queue.Push(ctx, InvalidationQueue, InvalidationEvent{Key: key}); err != nil {
		iv.logger.Error("service: failed to push to queue", zap.String("qid", InvalidationQueue), zap.String("cache.key", key), zap.Error(err))
	}
}

type BookService struct {
	invalidator
	logger  *zap.Logger
	config  *Config
	cache   *QueryCache
	storage BookStorage
}

func NewBookService(logger *zap.Logger, config *Config, cache *QueryCache, storage BookStorage, queue Queuer) BookServiceProvider {
	return &BookService{
		invalidator: invalidator{logger: logger, enabled: config.Cache.InvalidateOnWrite, queue: queue},
		logger:      logger,
		config:      config,
		cache:       cache,
		storage:     storage,
	}
}

func (bs *BookService) List(ctx context.Context, query BookQuery) ([]BookDTO, error) {
	query = query.Normalize()
	fetch := func(ctx context.Context) ([]BookDTO, error) {
		books, err := bs.storage.List(ctx, query)
		if err != nil {
			return nil, err
		}
		dtos := make([]BookDTO, 0, len(books))
		for _, b := range books {
			dtos = append(dtos, NewBookDTO(b))
		}
		return dtos, nil
	}

	key, err := BookListKey(query)
	if err != nil {
		bs.logger.Warn("service: failed to derive books list key", zap.Error(err))
		return fetch(ctx)
	}
	return ReadThrough(ctx, bs.cache, key, fetch)
}

func (bs *BookService) GetOne(ctx context.Context, id int64) (BookDTO, error) {
	return ReadThrough(ctx, bs.cache, BookKey(id), func(ctx context.Context) (BookDTO, error) {
		book, err := bs.storage.GetOne(ctx, id)
		if err != nil {
			return BookDTO{}, err
		}
		return NewBookDTO(book), nil
	})
}

func (bs *BookService) Add(ctx context.Context, input CreateBookInput) (BookDTO, error) {
	book, err := bs.storage.Create(ctx, Book{
		Title:    input.Title,
		Synopsis: input.Synopsis,
		AuthorID: input.AuthorID,
	}, input.CategoryIDs)
	if err != nil {
		return BookDTO{}, err
	}
	return NewBookDTO(book), nil
}

func (bs *BookService) Update(ctx context.Context, id int64, input UpdateBookInput) (BookDTO, error) {
	book, err := bs.storage.Update(ctx, id, input)
	if err != nil {
		return BookDTO{}, err
	}
	bs.invalidate(ctx, BookKey(id))
	return NewBookDTO(book), nil
}

func (bs *BookService) Delete(ctx context.Context, id int64) error {
	if _, err := bs.storage.Delete(ctx, id); err != nil {
		return err
	}
	bs.invalidate(ctx, BookKey(id))
	return nil
}

type MemberService struct {
	invalidator
	logger  *zap.Logger
	config  *Config
	cache   *QueryCache
	storage MemberStorage
}

func NewMemberService(logger *zap.Logger, config *Config, cache *QueryCache, storage MemberStorage, queue Queuer) MemberServiceProvider {
	return &MemberService{
		invalidator: invalidator{logger: logger, enabled: config.Cache.InvalidateOnWrite, queue: queue},
		logger:      logger,
		config:      config,
		cache:       cache,
		storage:     storage,
	}
}

func (ms *MemberService) List(ctx context.Context, query MemberQuery) ([]MemberDTO, error) {
	query = query.Normalize()
	fetch := func(ctx context.Context) ([]MemberDTO, error) {
		members, err := ms.storage.List(ctx, query)
		if err != nil {
			return nil, err
		}
		dtos := make([]MemberDTO, 0, len(members))
		for _, m := range members {
			dtos = append(dtos, NewMemberDTO(m))
		}
		return dtos, nil
	}

	key, err := MemberListKey(query)
	if err != nil {
		ms.logger.Warn("service: failed to derive members list key", zap.Error(err))
		return fetch(ctx)
	}
	return ReadThrough(ctx, ms.cache, key, fetch)
}

func (ms *MemberService) GetOne(ctx context.Context, id int64) (MemberDTO, error) {
	return ReadThrough(ctx, ms.cache, MemberKey(id), func(ctx context.Context) (MemberDTO, error) {
		member, err := ms.storage.GetOne(ctx, id)
		if err != nil {
			return MemberDTO{}, err
		}
		return NewMemberDTO(member), nil
	})
}

func (ms *MemberService) Add(ctx context.Context, input CreateMemberInput) (MemberDTO, error) {
	member, err := ms.storage.Create(ctx, input.Name, input.CardNumber)
	if err != nil {
		return MemberDTO{}, err
	}
	return NewMemberDTO(member), nil
}

func (ms *MemberService) Update(ctx context.Context, id int64, input UpdateMemberInput) (MemberDTO, error) {
	member, err := ms.storage.Update(ctx, id, input.Name, input.CardNumber)
	if err != nil {
		return MemberDTO{}, err
	}
	ms.invalidate(ctx, MemberKey(id))
	return NewMemberDTO(member), nil
}

func (ms *MemberService) Delete(ctx context.Context, id int64) error {
	if _, err := ms.storage.Delete(ctx, id); err != nil {
		return err
	}
	ms.invalidate(ctx, MemberKey(id))
	return nil
}
