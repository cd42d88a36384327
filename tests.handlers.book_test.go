package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestAPIHandler builds an api handler with authentication disabled
// on top of the given book and member storages.
func newTestAPIHandler(books BookStorage, members MemberStorage) *APIHandler {
	config := testServiceConfig()
	clock := NewMockClocker()
	qc := NewQueryCache(zap.NewNop(), NewMockCacheStore(), time.Minute, false)
	bs := NewBookService(zap.NewNop(), config, qc, books, &MockQueuer{})
	ms := NewMemberService(zap.NewNop(), config, qc, members, &MockQueuer{})
	return NewAPIHandler(zap.NewNop(), config, &Statistics{started: clock.Now()}, clock, NewMockUIDHandler("0", true), qc, bs, ms)
}

// readEnvelope decodes the json body of res.
func readEnvelope(t *testing.T, res *http.Response) map[string]interface{} {
	t.Helper()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	m := make(map[string]interface{})
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

// TestStatusHandler ensures api handler can provides its status.
func TestStatusHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	api := newTestAPIHandler(nil, nil)
	api.Status(w, req, httprouter.Params{})
	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json; charset=UTF-8", res.Header.Get("Content-Type"))
	m := readEnvelope(t, res)

	_, ok := m["requestid"]
	assert.True(t, ok)
	assert.Equal(t, "up & running since 0 mins", m["status"])
	assert.Equal(t, "Hello. Library catalog api is available. Enjoy :)", m["message"])
}

// TestCreateBookHandler ensures api handler can create a book.
//
//nolint:funlen
func TestCreateBookHandler(t *testing.T) {
	mockRepo := &MockBookStorage{
		CreateFunc: func(_ context.Context, book Book, categoryIDs []int64) (Book, error) {
			if book.AuthorID == 99 {
				return Book{}, ErrAuthorNotFound
			}
			if book.AuthorID == 50 {
				return Book{}, &PersistenceError{Op: "create book", Err: errors.New("disk full")}
			}
			book.ID = 1
			book.Author = Author{ID: book.AuthorID, FirstName: "Frank", LastName: "Herbert"}
			book.Categories = []Category{{ID: 1, Name: "SciFi"}}
			return book, nil
		},
	}
	api := newTestAPIHandler(mockRepo, nil)

	post := func(payload string) *http.Response {
		var body io.Reader
		if payload != "" {
			body = bytes.NewBufferString(payload)
		}
		req := httptest.NewRequest(http.MethodPost, "/v1/books", body)
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		return w.Result()
	}

	t.Run("should pass: valid payload", func(t *testing.T) {
		res := post(`{"title":"Dune","synopsis":"Spice","authorId":1,"categoryIds":[1]}`)
		defer res.Body.Close()
		assert.Equal(t, http.StatusCreated, res.StatusCode)
		assert.Equal(t, "application/json; charset=UTF-8", res.Header.Get("Content-Type"))
		m := readEnvelope(t, res)
		assert.Equal(t, float64(http.StatusCreated), m["status"])
		assert.Equal(t, "Book created successfully.", m["message"])

		book, ok := m["data"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, float64(1), book["id"])
		assert.Equal(t, "Dune", book["title"])
		assert.Equal(t, "Spice", book["synopsis"])
		assert.Equal(t, "Frank Herbert", book["authorName"])
		assert.Equal(t, []interface{}{"SciFi"}, book["categories"])
	})

	t.Run("should fail: unknown author", func(t *testing.T) {
		res := post(`{"title":"Dune","authorId":99}`)
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		m := readEnvelope(t, res)
		assert.Equal(t, map[string]interface{}{"authorId": "author does not exist"}, m["data"])
	})

	t.Run("should fail: storage failure", func(t *testing.T) {
		res := post(`{"title":"Dune","authorId":50}`)
		defer res.Body.Close()
		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
		m := readEnvelope(t, res)
		assert.Equal(t, "failed to create the book", m["message"])
		assert.NotContains(t, m["message"], "disk full")
	})

	t.Run("should fail: invalid payload", func(t *testing.T) {
		res := post(`{"title":1,"authorId":1}`)
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		m := readEnvelope(t, res)
		assert.Equal(t, "failed to create the book: invalid json payload", m["message"])
	})

	t.Run("should fail: empty body", func(t *testing.T) {
		res := post("")
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		m := readEnvelope(t, res)
		assert.Equal(t, "failed to create the book: request body is empty", m["message"])
	})

	t.Run("should fail: required field in payload", func(t *testing.T) {
		testCases := []struct {
			name    string
			payload string
			field   string
		}{
			{"empty title", `{"title":"","authorId":1}`, "title"},
			{"missing title", `{"authorId":1}`, "title"},
			{"missing author", `{"title":"Dune"}`, "authorId"},
			{"negative category", `{"title":"Dune","authorId":1,"categoryIds":[-1]}`, "categoryIds"},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				res := post(tc.payload)
				defer res.Body.Close()
				assert.Equal(t, http.StatusBadRequest, res.StatusCode)
				m := readEnvelope(t, res)
				assert.Equal(t, "failed to create the book: invalid request", m["message"])
				fields, ok := m["data"].(map[string]interface{})
				require.True(t, ok)
				assert.Contains(t, fields, tc.field)
			})
		}
	})
}

func TestGetAllBooksHandler(t *testing.T) {
	var received BookQuery
	mockRepo := &MockBookStorage{
		ListFunc: func(_ context.Context, query BookQuery) ([]Book, error) {
			received = query
			return []Book{testBook(1, "Dune"), testBook(2, "Children of Dune")}, nil
		},
	}
	api := newTestAPIHandler(mockRepo, nil)

	t.Run("should pass: query parameters", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/books?title=dune&categoryId=1&sortBy=Title&isDescending=true&pageNumber=2&pageSize=5", nil)
		w := httptest.NewRecorder()
		api.GetAllBooks(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)
		m := readEnvelope(t, res)
		assert.Equal(t, "Books fetched successfully.", m["message"])
		assert.Equal(t, float64(2), m["total"])

		assert.Equal(t, "dune", received.Title)
		require.NotNil(t, received.CategoryID)
		assert.Equal(t, int64(1), *received.CategoryID)
		assert.Equal(t, SortByTitle, received.SortBy)
		assert.True(t, received.IsDescending)
		assert.Equal(t, 2, received.PageNumber)
		assert.Equal(t, 5, received.PageSize)
	})

	t.Run("should fail: malformed parameters", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/books?pageSize=ten&categoryId=x", nil)
		w := httptest.NewRecorder()
		api.GetAllBooks(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		m := readEnvelope(t, res)
		assert.Equal(t, map[string]interface{}{"pageSize": "must be an integer", "categoryId": "must be an integer"}, m["data"])
	})
}

func TestGetOneBookHandler(t *testing.T) {
	mockRepo := &MockBookStorage{
		GetOneFunc: func(_ context.Context, id int64) (Book, error) {
			if id == 1 {
				return testBook(1, "Dune"), nil
			}
			return Book{}, ErrBookNotFound
		},
	}
	api := newTestAPIHandler(mockRepo, nil)

	testCases := []struct {
		name   string
		id     string
		status int
	}{
		{"existing", "1", http.StatusOK},
		{"missing", "2", http.StatusNotFound},
		{"not a number", "abc", http.StatusBadRequest},
		{"zero", "0", http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/books/"+tc.id, nil)
			w := httptest.NewRecorder()
			api.GetOneBook(w, req, httprouter.Params{{Key: "id", Value: tc.id}})
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestUpdateBookHandler(t *testing.T) {
	mockRepo := &MockBookStorage{
		UpdateFunc: func(_ context.Context, id int64, input UpdateBookInput) (Book, error) {
			if id != 1 {
				return Book{}, ErrBookNotFound
			}
			b := testBook(id, input.Title)
			b.Synopsis = input.Synopsis
			return b, nil
		},
	}
	api := newTestAPIHandler(mockRepo, nil)

	put := func(id, payload string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/v1/books/"+id, bytes.NewBufferString(payload))
		w := httptest.NewRecorder()
		api.UpdateBook(w, req, httprouter.Params{{Key: "id", Value: id}})
		return w
	}

	w := put("1", `{"title":"Dune Messiah","authorId":1,"categoryIds":[1]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	m := readEnvelope(t, w.Result())
	assert.Equal(t, "Book updated successfully.", m["message"])

	assert.Equal(t, http.StatusNotFound, put("2", `{"title":"x","authorId":1,"categoryIds":[1]}`).Code)
	assert.Equal(t, http.StatusBadRequest, put("1", `{"title":"x","authorId":1}`).Code)
	assert.Equal(t, http.StatusBadRequest, put("1", `{"title":`).Code)
}

func TestDeleteOneBookHandler(t *testing.T) {
	mockRepo := &MockBookStorage{
		DeleteFunc: func(_ context.Context, id int64) (Book, error) {
			if id != 1 {
				return Book{}, ErrBookNotFound
			}
			return testBook(1, "Dune"), nil
		},
	}
	api := newTestAPIHandler(mockRepo, nil)

	req := httptest.NewRequest(http.MethodDelete, "/v1/books/1", nil)
	w := httptest.NewRecorder()
	api.DeleteOneBook(w, req, httprouter.Params{{Key: "id", Value: "1"}})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())

	req = httptest.NewRequest(http.MethodDelete, "/v1/books/2", nil)
	w = httptest.NewRecorder()
	api.DeleteOneBook(w, req, httprouter.Params{{Key: "id", Value: "2"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
