package main

import (
	"context"
	"sync"
	"time"
)

// This file contains mocks definitions needed to perform unit tests.

type MockBookStorage struct {
	CreateFunc func(ctx context.Context, book Book, categoryIDs []int64) (Book, error)
	ListFunc   func(ctx context.Context, query BookQuery) ([]Book, error)
	GetOneFunc func(ctx context.Context, id int64) (Book, error)
	UpdateFunc func(ctx context.Context, id int64, input UpdateBookInput) (Book, error)
	DeleteFunc func(ctx context.Context, id int64) (Book, error)
}

// Create mocks the behavior of book creation by the repository.
func (m *MockBookStorage) Create(ctx context.Context, book Book, categoryIDs []int64) (Book, error) {
	return m.CreateFunc(ctx, book, categoryIDs)
}

// List mocks the behavior of listing books by the repository.
func (m *MockBookStorage) List(ctx context.Context, query BookQuery) ([]Book, error) {
	return m.ListFunc(ctx, query)
}

// GetOne mocks the behavior of retrieving a book by the repository.
func (m *MockBookStorage) GetOne(ctx context.Context, id int64) (Book, error) {
	return m.GetOneFunc(ctx, id)
}

// Update mocks the behavior of updating a book by the repository.
func (m *MockBookStorage) Update(ctx context.Context, id int64, input UpdateBookInput) (Book, error) {
	return m.UpdateFunc(ctx, id, input)
}

// Delete mocks the behavior of deleting a book by the repository.
func (m *MockBookStorage) Delete(ctx context.Context, id int64) (Book, error) {
	return m.DeleteFunc(ctx, id)
}

type MockMemberStorage struct {
	CreateFunc func(ctx context.Context, name, cardNumber string) (Member, error)
	ListFunc   func(ctx context.Context, query MemberQuery) ([]Member, error)
	GetOneFunc func(ctx context.Context, id int64) (Member, error)
	UpdateFunc func(ctx context.Context, id int64, name, cardNumber string) (Member, error)
	DeleteFunc func(ctx context.Context, id int64) (Member, error)
}

func (m *MockMemberStorage) Create(ctx context.Context, name, cardNumber string) (Member, error) {
	return m.CreateFunc(ctx, name, cardNumber)
}

func (m *MockMemberStorage) List(ctx context.Context, query MemberQuery) ([]Member, error) {
	return m.ListFunc(ctx, query)
}

func (m *MockMemberStorage) GetOne(ctx context.Context, id int64) (Member, error) {
	return m.GetOneFunc(ctx, id)
}

func (m *MockMemberStorage) Update(ctx context.Context, id int64, name, cardNumber string) (Member, error) {
	return m.UpdateFunc(ctx, id, name, cardNumber)
}

func (m *MockMemberStorage) Delete(ctx context.Context, id int64) (Member, error) {
	return m.DeleteFunc(ctx, id)
}

// MockCacheStore is a map based cache backend. GetErr and SetErr
// when set are returned by every Get and Set call.
type MockCacheStore struct {
	mu      sync.Mutex
	entries map[string][]byte
	GetErr  error
	SetErr  error
	Gets    int
	Sets    int
	Deletes []string
}

func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{entries: make(map[string][]byte)}
}

func (m *MockCacheStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets++
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	v, ok := m.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (m *MockCacheStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sets++
	if m.SetErr != nil {
		return m.SetErr
	}
	m.entries[key] = value
	return nil
}

func (m *MockCacheStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deletes = append(m.Deletes, key)
	delete(m.entries, key)
	return nil
}

// Has tells if key is currently stored.
func (m *MockCacheStore) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

// Put stores raw bytes under key, bypassing the Set counters.
func (m *MockCacheStore) Put(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
}

// MockQueuer records pushed events. Pop is not supported.
type MockQueuer struct {
	mu      sync.Mutex
	PushErr error
	Pushed  []InvalidationEvent
}

func (m *MockQueuer) Push(_ context.Context, _ string, event InvalidationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PushErr != nil {
		return m.PushErr
	}
	m.Pushed = append(m.Pushed, event)
	return nil
}

func (m *MockQueuer) Pop(ctx context.Context, _ ...string) (string, InvalidationEvent, error) {
	<-ctx.Done()
	return "", InvalidationEvent{}, ctx.Err()
}

// MockClocker implements a fake Clocker.
type MockClocker struct {
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{time.Date(2023, 0o7, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Sun, 02 Jul 2023 00:00:00 UTC` in time.RFC1123 format.
// equals to `2023-07-02 00:00:00 +0000 UTC` in String format.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// NewTicker returns a real ticker so periodic jobs can be driven by tests.
func (mck *MockClocker) NewTicker(d time.Duration) *time.Ticker {
	return time.NewTicker(d)
}

// Advance moves the mocked time forward.
func (mck *MockClocker) Advance(d time.Duration) {
	mck.MockNow = mck.MockNow.Add(d)
}

// MockUIDHandler implements a fake UIDHandler.
type MockUIDHandler struct {
	MockedUID string
	Valid     bool
}

// NewMockUIDHandler returns a mocked instance with predictable id.
func NewMockUIDHandler(id string, valid bool) *MockUIDHandler {
	return &MockUIDHandler{MockedUID: id, Valid: valid}
}

// Generate constructs a predictable id to be used as mock.
func (muid *MockUIDHandler) Generate(prefix string) string {
	return prefix + ":" + muid.MockedUID
}

// IsValid mocks IsValid behavior by providing configured status.
func (muid *MockUIDHandler) IsValid(_, _ string) bool {
	return muid.Valid
}
