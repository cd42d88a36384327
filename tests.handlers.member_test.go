package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberHandlers(t *testing.T) {
	mockRepo := &MockMemberStorage{
		CreateFunc: func(_ context.Context, name, cardNumber string) (Member, error) {
			return Member{ID: 1, Name: name, LibraryCard: LibraryCard{ID: 1, CardNumber: cardNumber, MemberID: 1}}, nil
		},
		ListFunc: func(_ context.Context, query MemberQuery) ([]Member, error) {
			return []Member{{ID: 1, Name: "Ann"}}, nil
		},
		GetOneFunc: func(_ context.Context, id int64) (Member, error) {
			if id != 1 {
				return Member{}, ErrMemberNotFound
			}
			return Member{ID: 1, Name: "Ann"}, nil
		},
		UpdateFunc: func(_ context.Context, id int64, name, cardNumber string) (Member, error) {
			if id != 1 {
				return Member{}, ErrMemberNotFound
			}
			return Member{ID: 1, Name: name, LibraryCard: LibraryCard{ID: 1, CardNumber: cardNumber, MemberID: 1}}, nil
		},
		DeleteFunc: func(_ context.Context, id int64) (Member, error) {
			if id != 1 {
				return Member{}, ErrMemberNotFound
			}
			return Member{ID: 1}, nil
		},
	}
	api := newTestAPIHandler(nil, mockRepo)

	t.Run("create", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/members", bytes.NewBufferString(`{"name":"Ann","cardNumber":"C-1"}`))
		w := httptest.NewRecorder()
		api.CreateMember(w, req, httprouter.Params{})
		assert.Equal(t, http.StatusCreated, w.Code)
		m := readEnvelope(t, w.Result())
		assert.Equal(t, "Member created successfully.", m["message"])
		member, ok := m["data"].(map[string]interface{})
		require.True(t, ok)
		card, ok := member["libraryCard"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "C-1", card["cardNumber"])
	})

	t.Run("create without card number", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/members", bytes.NewBufferString(`{"name":"Ann"}`))
		w := httptest.NewRecorder()
		api.CreateMember(w, req, httprouter.Params{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		m := readEnvelope(t, w.Result())
		fields, ok := m["data"].(map[string]interface{})
		require.True(t, ok)
		assert.Contains(t, fields, "cardNumber")
	})

	t.Run("list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/members?name=ann", nil)
		w := httptest.NewRecorder()
		api.GetAllMembers(w, req, httprouter.Params{})
		assert.Equal(t, http.StatusOK, w.Code)
		m := readEnvelope(t, w.Result())
		assert.Equal(t, float64(1), m["total"])
	})

	t.Run("get", func(t *testing.T) {
		w := httptest.NewRecorder()
		api.GetOneMember(w, httptest.NewRequest(http.MethodGet, "/v1/members/1", nil), httprouter.Params{{Key: "id", Value: "1"}})
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		api.GetOneMember(w, httptest.NewRequest(http.MethodGet, "/v1/members/2", nil), httprouter.Params{{Key: "id", Value: "2"}})
		assert.Equal(t, http.StatusNotFound, w.Code)
		m := readEnvelope(t, w.Result())
		assert.Equal(t, "member does not exist", m["message"])
	})

	t.Run("update", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/v1/members/1", bytes.NewBufferString(`{"name":"Ann B","cardNumber":"C-2"}`))
		w := httptest.NewRecorder()
		api.UpdateMember(w, req, httprouter.Params{{Key: "id", Value: "1"}})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := httptest.NewRecorder()
		api.DeleteOneMember(w, httptest.NewRequest(http.MethodDelete, "/v1/members/1", nil), httprouter.Params{{Key: "id", Value: "1"}})
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = httptest.NewRecorder()
		api.DeleteOneMember(w, httptest.NewRequest(http.MethodDelete, "/v1/members/2", nil), httprouter.Params{{Key: "id", Value: "2"}})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
