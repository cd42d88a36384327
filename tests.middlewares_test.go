package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestMiddlewaresStacks ensures we get both public and ops middlewares
// stacks with exact number of elements in those stacks.
func TestMiddlewaresStacks(t *testing.T) {
	api := newTestAPIHandler(nil, nil)
	pub, ops := api.MiddlewaresStacks()
	assert.Equal(t, 7, len(*pub))
	assert.Equal(t, 6, len(*ops))
}

// TestChain ensures each middleware in the stack is called as well the handler.
func TestChain(t *testing.T) {
	var ca, cb, cc, ch bool
	queue := make(chan int, 4)

	middlewareA := func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			queue <- 1
			ca = true
			next(w, r, ps)
		}
	}
	middlewareB := func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			queue <- 2
			cb = true
			next(w, r, ps)
		}
	}
	middlewareC := func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			queue <- 3
			cc = true
			next(w, r, ps)
		}
	}
	middlewares := Middlewares{
		middlewareA,
		middlewareB,
		middlewareC,
	}

	handler := func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		queue <- 4
		ch = true
	}

	chained := (&middlewares).Chain(handler)
	req := httptest.NewRequest("GET", "/v1/books", nil)
	w := httptest.NewRecorder()
	chained(w, req, nil)

	t.Run("check calling", func(t *testing.T) {
		assert.Equal(t, true, ca)
		assert.Equal(t, true, cb)
		assert.Equal(t, true, cc)
		assert.Equal(t, true, ch)
	})

	t.Run("check ordering", func(t *testing.T) {
		assert.Equal(t, 1, <-queue)
		assert.Equal(t, 2, <-queue)
		assert.Equal(t, 3, <-queue)
		assert.Equal(t, 4, <-queue)
	})
}

// TestRequestsCounterMiddleware ensures the request counter increment.
func TestRequestsCounterMiddleware(t *testing.T) {
	api := newTestAPIHandler(nil, nil)
	req := httptest.NewRequest("GET", "/v1/books", nil)
	w := httptest.NewRecorder()
	var called bool
	handler := func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
		called = true
		assert.Equal(t, uint64(1), GetRequestNumberFromContext(req.Context()))
	}
	wrapped := api.RequestsCounterMiddleware(handler)
	wrapped(w, req, nil)
	assert.Equal(t, true, called)
	assert.Equal(t, uint64(1), api.stats.called)
}

func TestRequestIDMiddleware(t *testing.T) {
	t.Run("generated", func(t *testing.T) {
		api := newTestAPIHandler(nil, nil)
		api.idsHandler = NewMockUIDHandler("abc", false)
		w := httptest.NewRecorder()
		var seen string
		api.RequestIDMiddleware(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
			seen = GetValueFromContext(r.Context(), ContextRequestID)
		})(w, httptest.NewRequest("GET", "/status", nil), nil)
		assert.Equal(t, "r:abc", seen)
		assert.Equal(t, "r:abc", w.Header().Get("X-Request-ID"))
	})

	t.Run("kept from header", func(t *testing.T) {
		api := newTestAPIHandler(nil, nil)
		req := httptest.NewRequest("GET", "/status", nil)
		req.Header.Set("X-Request-ID", "r:given")
		w := httptest.NewRecorder()
		api.RequestIDMiddleware(func(http.ResponseWriter, *http.Request, httprouter.Params) {})(w, req, nil)
		assert.Equal(t, "r:given", w.Header().Get("X-Request-ID"))
	})
}

func TestStatsMiddleware(t *testing.T) {
	api := newTestAPIHandler(nil, nil)
	h := api.StatsMiddleware(func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusTeapot)
	})
	h(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil), nil)
	h(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil), nil)
	assert.Equal(t, uint64(2), api.stats.status[http.StatusTeapot])
}

func TestMaintenanceModeMiddleware(t *testing.T) {
	api := newTestAPIHandler(nil, nil)
	h := api.MaintenanceModeMiddleware(func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
	})

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest("GET", "/v1/books", nil), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	api.Maintenance(w, httptest.NewRequest("GET", "/ops/maintenance?status=enable&msg=upgrade", nil), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h(w, httptest.NewRequest("GET", "/v1/books", nil), nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "upgrade")

	w = httptest.NewRecorder()
	api.Maintenance(w, httptest.NewRequest("GET", "/ops/maintenance?status=disable", nil), nil)
	w = httptest.NewRecorder()
	h(w, httptest.NewRequest("GET", "/v1/books", nil), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPanicRecoveryMiddleware(t *testing.T) {
	api := newTestAPIHandler(nil, nil)
	w := httptest.NewRecorder()
	api.PanicRecoveryMiddleware(func(http.ResponseWriter, *http.Request, httprouter.Params) {
		panic("boom")
	})(w, httptest.NewRequest("GET", "/v1/books", nil), nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequireRoles(t *testing.T) {
	authConfig := AuthConfig{
		Enabled:    true,
		SigningKey: "0123456789abcdef0123456789abcdef",
		Issuer:     "library-catalog-tests",
	}
	api := newTestAPIHandler(nil, nil)
	api.config.Auth = authConfig
	api.validator = NewTokenValidator(&authConfig, api.clock)

	var subject string
	protected := api.RequireRoles(RoleAdmin, RoleLibrarian)(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		subject = GetValueFromContext(r.Context(), ContextAuthSubject)
		w.WriteHeader(http.StatusOK)
	})

	sign := func(t *testing.T, cfg AuthConfig, roles []string, ttl time.Duration) string {
		t.Helper()
		token, err := NewAccessToken(&cfg, "jane", roles, api.clock.Now(), ttl)
		require.NoError(t, err)
		return token
	}

	otherKey := authConfig
	otherKey.SigningKey = "fedcba9876543210fedcba9876543210"
	otherIssuer := authConfig
	otherIssuer.Issuer = "someone-else"

	testCases := []struct {
		name   string
		header string
		status int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic amFuZTpwd2Q=", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized},
		{"expired token", "Bearer " + sign(t, authConfig, []string{RoleAdmin}, -time.Minute), http.StatusUnauthorized},
		{"foreign signature", "Bearer " + sign(t, otherKey, []string{RoleAdmin}, time.Hour), http.StatusUnauthorized},
		{"foreign issuer", "Bearer " + sign(t, otherIssuer, []string{RoleAdmin}, time.Hour), http.StatusUnauthorized},
		{"missing role", "Bearer " + sign(t, authConfig, []string{RoleUser}, time.Hour), http.StatusForbidden},
		{"granted role", "Bearer " + sign(t, authConfig, []string{RoleUser, "librarian"}, time.Hour), http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			subject = ""
			req := httptest.NewRequest(http.MethodGet, "/v1/members", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			protected(w, req, nil)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "jane", subject)
			}
			if tc.status == http.StatusUnauthorized {
				assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
			}
		})
	}

	t.Run("disabled authentication", func(t *testing.T) {
		open := newTestAPIHandler(nil, nil)
		w := httptest.NewRecorder()
		open.RequireRoles(RoleAdmin)(func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
			w.WriteHeader(http.StatusOK)
		})(w, httptest.NewRequest(http.MethodGet, "/ops/stats", nil), nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRemoveCacheEntryHandler(t *testing.T) {
	store := NewMockCacheStore()
	api := newTestAPIHandler(nil, nil)
	api.cache = NewQueryCache(zap.NewNop(), store, time.Minute, false)
	store.Put("book_1", []byte(`{"id":1}`))

	w := httptest.NewRecorder()
	api.RemoveCacheEntry(w, httptest.NewRequest(http.MethodDelete, "/ops/cache?key=book_1", nil), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, store.Has("book_1"))

	w = httptest.NewRecorder()
	api.RemoveCacheEntry(w, httptest.NewRequest(http.MethodDelete, "/ops/cache", nil), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
