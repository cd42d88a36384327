package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testServiceConfig() *Config {
	return &Config{Cache: CacheConfig{TTL: time.Minute, InvalidateOnWrite: true}}
}

func testBook(id int64, title string) Book {
	return Book{
		ID:         id,
		Title:      title,
		AuthorID:   1,
		Author:     Author{ID: 1, FirstName: "Frank", LastName: "Herbert"},
		Categories: []Category{{ID: 1, Name: "SciFi"}},
	}
}

func TestBookService_List(t *testing.T) {
	var received []BookQuery
	storage := &MockBookStorage{
		ListFunc: func(_ context.Context, query BookQuery) ([]Book, error) {
			received = append(received, query)
			return []Book{testBook(1, "Dune")}, nil
		},
	}
	store := NewMockCacheStore()
	qc := NewQueryCache(zap.NewNop(), store, time.Minute, false)
	bs := NewBookService(zap.NewNop(), testServiceConfig(), qc, storage, &MockQueuer{})
	ctx := context.Background()

	books, err := bs.List(ctx, BookQuery{Title: "dune", PageNumber: -3, PageSize: 500})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Frank Herbert", books[0].AuthorName)
	assert.Equal(t, []string{"SciFi"}, books[0].Categories)

	// paging is clamped before reaching the storage.
	require.Len(t, received, 1)
	assert.Equal(t, 1, received[0].PageNumber)
	assert.Equal(t, MaxPageSize, received[0].PageSize)

	// equivalent query is served from the cache.
	again, err := bs.List(ctx, BookQuery{Title: "dune", PageNumber: 1, PageSize: MaxPageSize})
	require.NoError(t, err)
	assert.Equal(t, books, again)
	assert.Len(t, received, 1)

	// a different query reaches the storage.
	_, err = bs.List(ctx, BookQuery{Title: "dune", PageNumber: 2, PageSize: MaxPageSize})
	require.NoError(t, err)
	assert.Len(t, received, 2)
}

func TestBookService_GetOne(t *testing.T) {
	calls := 0
	storage := &MockBookStorage{
		GetOneFunc: func(_ context.Context, id int64) (Book, error) {
			calls++
			if id != 1 {
				return Book{}, ErrBookNotFound
			}
			return testBook(1, "Dune"), nil
		},
	}
	store := NewMockCacheStore()
	qc := NewQueryCache(zap.NewNop(), store, time.Minute, false)
	bs := NewBookService(zap.NewNop(), testServiceConfig(), qc, storage, &MockQueuer{})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		b, err := bs.GetOne(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Dune", b.Title)
	}
	assert.Equal(t, 1, calls)
	assert.True(t, store.Has(BookKey(1)))

	// not found is never cached.
	for i := 0; i < 2; i++ {
		_, err := bs.GetOne(ctx, 2)
		assert.ErrorIs(t, err, ErrBookNotFound)
	}
	assert.Equal(t, 3, calls)
	assert.False(t, store.Has(BookKey(2)))
}

func TestBookService_Writes(t *testing.T) {
	storage := &MockBookStorage{
		CreateFunc: func(_ context.Context, book Book, categoryIDs []int64) (Book, error) {
			book.ID = 10
			book.Author = Author{ID: book.AuthorID, FirstName: "Isaac", LastName: "Asimov"}
			for _, id := range categoryIDs {
				book.Categories = append(book.Categories, Category{ID: id, Name: "SciFi"})
			}
			return book, nil
		},
		UpdateFunc: func(_ context.Context, id int64, input UpdateBookInput) (Book, error) {
			if id != 10 {
				return Book{}, ErrBookNotFound
			}
			return testBook(id, input.Title), nil
		},
		DeleteFunc: func(_ context.Context, id int64) (Book, error) {
			if id != 10 {
				return Book{}, ErrBookNotFound
			}
			return testBook(id, "gone"), nil
		},
	}
	queue := &MockQueuer{}
	qc := NewQueryCache(zap.NewNop(), NewMockCacheStore(), time.Minute, false)
	bs := NewBookService(zap.NewNop(), testServiceConfig(), qc, storage, queue)
	ctx := context.Background()

	created, err := bs.Add(ctx, CreateBookInput{Title: "I, Robot", AuthorID: 2, CategoryIDs: []int64{1}})
	require.NoError(t, err)
	assert.Equal(t, int64(10), created.ID)
	assert.Equal(t, "Isaac Asimov", created.AuthorName)
	assert.Empty(t, queue.Pushed)

	updated, err := bs.Update(ctx, 10, UpdateBookInput{Title: "I, Robot!", AuthorID: 1, CategoryIDs: []int64{1}})
	require.NoError(t, err)
	assert.Equal(t, "I, Robot!", updated.Title)
	assert.Equal(t, []InvalidationEvent{{Key: "book_10"}}, queue.Pushed)

	require.NoError(t, bs.Delete(ctx, 10))
	assert.Equal(t, []InvalidationEvent{{Key: "book_10"}, {Key: "book_10"}}, queue.Pushed)

	_, err = bs.Update(ctx, 11, UpdateBookInput{Title: "x", AuthorID: 1, CategoryIDs: []int64{1}})
	assert.ErrorIs(t, err, ErrBookNotFound)
	assert.ErrorIs(t, bs.Delete(ctx, 11), ErrBookNotFound)
	assert.Len(t, queue.Pushed, 2)

	t.Run("queue failure does not fail the write", func(t *testing.T) {
		failing := &MockQueuer{PushErr: errors.New("queue down")}
		svc := NewBookService(zap.NewNop(), testServiceConfig(), qc, storage, failing)
		assert.NoError(t, svc.Delete(ctx, 10))
	})

	t.Run("invalidation disabled", func(t *testing.T) {
		q := &MockQueuer{}
		svc := NewBookService(zap.NewNop(), &Config{}, qc, storage, q)
		assert.NoError(t, svc.Delete(ctx, 10))
		assert.Empty(t, q.Pushed)
	})
}

func TestMemberService(t *testing.T) {
	listCalls := 0
	storage := &MockMemberStorage{
		CreateFunc: func(_ context.Context, name, cardNumber string) (Member, error) {
			return Member{ID: 1, Name: name, LibraryCard: LibraryCard{ID: 1, CardNumber: cardNumber, MemberID: 1}}, nil
		},
		ListFunc: func(_ context.Context, _ MemberQuery) ([]Member, error) {
			listCalls++
			return []Member{{ID: 1, Name: "Ann"}}, nil
		},
		GetOneFunc: func(_ context.Context, id int64) (Member, error) {
			return Member{}, ErrMemberNotFound
		},
		UpdateFunc: func(_ context.Context, id int64, name, cardNumber string) (Member, error) {
			return Member{ID: id, Name: name, LibraryCard: LibraryCard{ID: 1, CardNumber: cardNumber, MemberID: id}}, nil
		},
		DeleteFunc: func(_ context.Context, id int64) (Member, error) {
			return Member{ID: id}, nil
		},
	}
	queue := &MockQueuer{}
	qc := NewQueryCache(zap.NewNop(), NewMockCacheStore(), time.Minute, false)
	ms := NewMemberService(zap.NewNop(), testServiceConfig(), qc, storage, queue)
	ctx := context.Background()

	m, err := ms.Add(ctx, CreateMemberInput{Name: "Ann", CardNumber: "C-1"})
	require.NoError(t, err)
	assert.Equal(t, "C-1", m.LibraryCard.CardNumber)

	for i := 0; i < 2; i++ {
		members, err := ms.List(ctx, MemberQuery{Name: "ann"})
		require.NoError(t, err)
		assert.Len(t, members, 1)
	}
	assert.Equal(t, 1, listCalls)

	_, err = ms.GetOne(ctx, 9)
	assert.ErrorIs(t, err, ErrMemberNotFound)

	_, err = ms.Update(ctx, 1, UpdateMemberInput{Name: "Ann B", CardNumber: "C-2"})
	require.NoError(t, err)
	require.NoError(t, ms.Delete(ctx, 1))
	assert.Equal(t, []InvalidationEvent{{Key: "member_1"}, {Key: "member_1"}}, queue.Pushed)
}
