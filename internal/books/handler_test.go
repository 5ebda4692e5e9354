package books

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestBookHandler_CRUD(t *testing.T) {
	g := gin.New()
	repo := NewMemoryRepo()
	RegisterRoutes(g.Group("/api"), g.Group("/api"), repo)

	// create
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/books", strings.NewReader(`{"title":"The Intelligent Investor","author":"Benjamin Graham","price":5000}`))
	req.Header.Set("Content-Type", "application/json")
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)
	var created Book
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	require.Equal(t, int64(500000), created.PriceMinor())

	// missing author
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/books", strings.NewReader(`{"title":"x","price":1}`))
	req.Header.Set("Content-Type", "application/json")
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// get
	w = httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/books/"+created.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)

	// list
	w = httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/books", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list []Book
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)

	// delete
	w = httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/books/"+created.ID, nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/books/"+created.ID, nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestPriceMinorRounds(t *testing.T) {
	require.Equal(t, int64(1999), (&Book{Price: 19.99}).PriceMinor())
	require.Equal(t, int64(0), (&Book{}).PriceMinor())
}
