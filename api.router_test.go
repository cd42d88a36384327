package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
)

// TestSetupRoutes ensures all expected endpoints are implemented.
func TestSetupRoutes(t *testing.T) {
	testCases := []struct {
		name        string
		request     *http.Request
		implemented bool
	}{
		{"index endpoint", httptest.NewRequest(http.MethodGet, "/", nil), true},
		{"status endpoint", httptest.NewRequest(http.MethodGet, "/status", nil), true},
		{"create book endpoint", httptest.NewRequest(http.MethodPost, "/v1/books", nil), true},
		{"fetch all books endpoint", httptest.NewRequest(http.MethodGet, "/v1/books", nil), true},
		{"fetch all books endpoint with slash", httptest.NewRequest(http.MethodGet, "/v1/books/", nil), true},
		{"fetch single book endpoint", httptest.NewRequest(http.MethodGet, "/v1/books/1", nil), true},
		{"update book endpoint", httptest.NewRequest(http.MethodPut, "/v1/books/1", nil), true},
		{"delete book endpoint", httptest.NewRequest(http.MethodDelete, "/v1/books/1", nil), true},
		{"create member endpoint", httptest.NewRequest(http.MethodPost, "/v1/members", nil), true},
		{"fetch all members endpoint", httptest.NewRequest(http.MethodGet, "/v1/members", nil), true},
		{"fetch single member endpoint", httptest.NewRequest(http.MethodGet, "/v1/members/1", nil), true},
		{"update member endpoint", httptest.NewRequest(http.MethodPut, "/v1/members/1", nil), true},
		{"delete member endpoint", httptest.NewRequest(http.MethodDelete, "/v1/members/1", nil), true},
		{"ops stats endpoint", httptest.NewRequest(http.MethodGet, "/ops/stats", nil), true},
		{"ops cache endpoint", httptest.NewRequest(http.MethodDelete, "/ops/cache?key=book_1", nil), true},
		{"invalid api endpoint", httptest.NewRequest(http.MethodGet, "/v1", nil), false},
		{"invalid books endpoint", httptest.NewRequest(http.MethodGet, "/books", nil), false},
		{"invalid authors endpoint", httptest.NewRequest(http.MethodGet, "/v1/authors", nil), false},
	}

	books := &MockBookStorage{
		CreateFunc: func(_ context.Context, book Book, _ []int64) (Book, error) { return book, nil },
		ListFunc:   func(context.Context, BookQuery) ([]Book, error) { return []Book{}, nil },
		GetOneFunc: func(context.Context, int64) (Book, error) { return Book{}, nil },
		UpdateFunc: func(context.Context, int64, UpdateBookInput) (Book, error) { return Book{}, nil },
		DeleteFunc: func(context.Context, int64) (Book, error) { return Book{}, nil },
	}
	members := &MockMemberStorage{
		CreateFunc: func(context.Context, string, string) (Member, error) { return Member{}, nil },
		ListFunc:   func(context.Context, MemberQuery) ([]Member, error) { return []Member{}, nil },
		GetOneFunc: func(context.Context, int64) (Member, error) { return Member{}, nil },
		UpdateFunc: func(context.Context, int64, string, string) (Member, error) { return Member{}, nil },
		DeleteFunc: func(context.Context, int64) (Member, error) { return Member{}, nil },
	}
	api := newTestAPIHandler(books, members)
	api.config.OpsEndpointsEnable = true
	m := &MiddlewareMap{public: (&Middlewares{}).Chain, ops: (&Middlewares{}).Chain}
	router := api.SetupRoutes(httprouter.New(), m)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tc.request)
			if tc.implemented {
				assert.NotEqual(t, 404, w.Code)
			} else {
				assert.Equal(t, 404, w.Code)
			}
		})
	}
}
