package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAuthorHandler(t *testing.T) {
	cs, queue := newTestCatalogService()
	api := newTestAPIHandler(newTestConfig(), cs, nil)

	t.Run("should pass: valid payload", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/authors", strings.NewReader(`{"name":"Chinua Achebe","birthDate":"1930-11-16"}`))
		w := httptest.NewRecorder()
		api.CreateAuthor(w, req, nil)
		assert.Equal(t, http.StatusCreated, w.Code)
		data := decodeBody(t, w.Result())["data"].(map[string]interface{})
		assert.Equal(t, "Chinua Achebe", data["name"])
		assert.Equal(t, []interface{}{}, data["books"])
		assert.Equal(t, "1930-11-16T00:00:00Z", data["birthDate"])
		assert.Equal(t, 1, queue.Count(CreateQueue))
	})

	t.Run("should fail: empty body reports missing name", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/authors", http.NoBody)
		w := httptest.NewRecorder()
		api.CreateAuthor(w, req, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Name is required and must be a non-empty string", decodeBody(t, w.Result())["message"])
	})

	t.Run("should fail: duplicate name", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/authors", strings.NewReader(`{"name":"chinua achebe"}`))
		w := httptest.NewRecorder()
		api.CreateAuthor(w, req, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Author with this name already exists", decodeBody(t, w.Result())["message"])
	})

	t.Run("should fail: two json values", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/authors", strings.NewReader(`{"name":"A"}{"name":"B"}`))
		w := httptest.NewRecorder()
		api.CreateAuthor(w, req, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Request body must only contain a single JSON object", decodeBody(t, w.Result())["message"])
	})
}

func TestAuthorHandlersWithMockedService(t *testing.T) {
	var gotQuery ListQuery
	mockService := &MockCatalogService{
		ListAuthorsFunc: func(_ context.Context, q ListQuery) ([]Author, error) {
			gotQuery = q
			return []Author{{ID: "a:1", Name: "One", Books: []string{}}}, nil
		},
		GetAuthorFunc: func(_ context.Context, id string) (Author, error) {
			return Author{}, NotFound("Author")
		},
		DeleteAuthorFunc: func(_ context.Context, id string) error {
			return BadRequest("cannot delete author with existing books")
		},
		ListAuthorBooksFunc: func(_ context.Context, id string) ([]BookView, error) {
			return []BookView{}, nil
		},
	}
	api := newTestAPIHandler(newTestConfig(), mockService, nil)
	idParam := httprouter.Params{{Key: "id", Value: "a:1"}}

	t.Run("list passes parsed options", func(t *testing.T) {
		w := httptest.NewRecorder()
		api.ListAuthors(w, httptest.NewRequest(http.MethodGet, "/api/v1/authors?sort=-bookCount&limit=3&search=on", nil), nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, ListQuery{Search: "on", Sort: "bookCount", Descending: true, Limit: 3}, gotQuery)
		assert.Equal(t, float64(1), decodeBody(t, w.Result())["results"])
	})

	t.Run("list rejects bad limit before reaching the service", func(t *testing.T) {
		gotQuery = ListQuery{}
		w := httptest.NewRecorder()
		api.ListAuthors(w, httptest.NewRequest(http.MethodGet, "/api/v1/authors?limit=abc", nil), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, ListQuery{}, gotQuery)
	})

	t.Run("get not found", func(t *testing.T) {
		w := httptest.NewRecorder()
		api.GetAuthor(w, httptest.NewRequest(http.MethodGet, "/api/v1/authors/a:1", nil), idParam)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Author not found", decodeBody(t, w.Result())["message"])
	})

	t.Run("delete blocked", func(t *testing.T) {
		w := httptest.NewRecorder()
		api.DeleteAuthor(w, httptest.NewRequest(http.MethodDelete, "/api/v1/authors/a:1", nil), idParam)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "cannot delete author with existing books", decodeBody(t, w.Result())["message"])
	})

	t.Run("books of author", func(t *testing.T) {
		w := httptest.NewRecorder()
		api.ListAuthorBooks(w, httptest.NewRequest(http.MethodGet, "/api/v1/authors/a:1/books", nil), idParam)
		assert.Equal(t, http.StatusOK, w.Code)
		m := decodeBody(t, w.Result())
		assert.Equal(t, float64(0), m["results"])
		assert.Equal(t, []interface{}{}, m["data"])
	})
}

func TestUpdateAuthorHandler(t *testing.T) {
	cs, _ := newTestCatalogService()
	api := newTestAPIHandler(newTestConfig(), cs, nil)
	author := mustCreateAuthor(t, cs, "Buchi Emecheta")
	idParam := httprouter.Params{{Key: "id", Value: author.ID}}

	t.Run("partial update keeps name", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/authors/"+author.ID, strings.NewReader(`{"biography":"Second-Class Citizen"}`))
		api.UpdateAuthor(w, req, idParam)
		require.Equal(t, http.StatusOK, w.Code)
		data := decodeBody(t, w.Result())["data"].(map[string]interface{})
		assert.Equal(t, "Buchi Emecheta", data["name"])
		assert.Equal(t, "Second-Class Citizen", data["biography"])
	})

	t.Run("invalid birth date", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/v1/authors/"+author.ID, strings.NewReader(`{"birthDate":"21/07/1944"}`))
		api.UpdateAuthor(w, req, idParam)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		m := decodeBody(t, w.Result())
		assert.Equal(t, "Validation failed", m["message"])
		assert.Equal(t, map[string]interface{}{"birthDate": []interface{}{"Birth date must be a valid date (YYYY-MM-DD)"}}, m["errors"])
	})

	t.Run("delete without books", func(t *testing.T) {
		w := httptest.NewRecorder()
		api.DeleteAuthor(w, httptest.NewRequest(http.MethodDelete, "/api/v1/authors/"+author.ID, nil), idParam)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}
