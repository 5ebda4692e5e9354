package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/thedividend/dividend/internal/article"
	"github.com/thedividend/dividend/internal/article/repository"
	"github.com/thedividend/dividend/internal/article/service"
	"github.com/thedividend/dividend/pkg/middleware"
)

type recordedRead struct{ user, article string }

type fakeHistory struct{ reads []recordedRead }

func (f *fakeHistory) RecordRead(ctx context.Context, userID, articleID string) error {
	f.reads = append(f.reads, recordedRead{userID, articleID})
	return nil
}

func setup(t *testing.T) (*gin.Engine, *fakeHistory) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := service.New(repository.NewMemoryRepo(), nil, 0)
	hist := &fakeHistory{}

	r := gin.New()
	// a test header stands in for a verified token
	public := r.Group("/api", func(c *gin.Context) {
		if u := c.GetHeader("X-Test-User"); u != "" {
			c.Set("principal", &middleware.Principal{UserID: u, Role: "user"})
		}
		c.Next()
	})
	admin := r.Group("/api", func(c *gin.Context) {
		c.Set("principal", &middleware.Principal{UserID: "editor-1", Role: "admin"})
		c.Next()
	})
	RegisterArticleRoutes(public, admin, svc, hist)
	return r, hist
}

func do(r *gin.Engine, method, path, body string, header ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const doc = `{"type":"doc","content":[{"type":"heading","attrs":{"level":2},"content":[{"type":"text","text":"Yield"}]},{"type":"paragraph","content":[{"type":"text","text":"Compounding","marks":[{"type":"bold"}]}]}]}`

func TestArticleLifecycle(t *testing.T) {
	r, hist := setup(t)

	w := do(r, http.MethodPost, "/api/admin/articles", `{"title":"Dividend Growth 101","content":`+doc+`}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created article.Article
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, "dividend-growth-101", created.Slug)
	require.Equal(t, "editor-1", created.AuthorID)
	require.Equal(t, 1, created.ReadTime)

	// drafts are invisible to readers
	require.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/articles/dividend-growth-101", "").Code)
	w = do(r, http.MethodGet, "/api/articles", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"items":[],"total":0,"page":1,"pageSize":12}`, w.Body.String())

	w = do(r, http.MethodPatch, "/api/admin/articles/"+created.ID, `{"status":"published"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/articles/dividend-growth-101", "", "X-Test-User", "reader-7")
	require.Equal(t, http.StatusOK, w.Code)
	var read article.Article
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &read))
	require.Equal(t, int64(1), read.Views)
	require.Equal(t, []recordedRead{{"reader-7", created.ID}}, hist.reads)

	// anonymous reads are not attributed
	require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/articles/dividend-growth-101", "").Code)
	require.Len(t, hist.reads, 1)

	w = do(r, http.MethodGet, "/api/articles/dividend-growth-101/html", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	require.Equal(t, `<div class="article-content"><h2>Yield</h2><p><strong>Compounding</strong></p></div>`, w.Body.String())

	w = do(r, http.MethodPost, "/api/admin/articles/"+created.ID+"/featured", "")
	require.Equal(t, http.StatusOK, w.Code)
	w = do(r, http.MethodGet, "/api/articles?featured=true", "")
	var page struct {
		Items []article.Article `json:"items"`
		Total int64             `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Equal(t, int64(1), page.Total)
	require.True(t, page.Items[0].IsFeatured)

	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/admin/articles/"+created.ID+"/editors-pick", "").Code)

	require.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/api/admin/articles/"+created.ID, "").Code)
	require.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/api/admin/articles/"+created.ID, "").Code)
}

func TestArticleErrors(t *testing.T) {
	r, _ := setup(t)

	require.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/admin/articles", `{"title":""}`).Code)
	require.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/admin/articles", `{"title":"x","content":"not a doc"`).Code)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/admin/articles", `{"title":"Same"}`).Code)
	require.Equal(t, http.StatusConflict, do(r, http.MethodPost, "/api/admin/articles", `{"title":"same"}`).Code)
	require.Equal(t, http.StatusNotFound, do(r, http.MethodPatch, "/api/admin/articles/missing", `{"title":"t"}`).Code)
	require.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/articles/missing/html", "").Code)

	w := do(r, http.MethodGet, "/api/admin/articles", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"total":1`)
}
