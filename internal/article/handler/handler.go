package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/thedividend/dividend/internal/article"
	"github.com/thedividend/dividend/internal/article/service"
	"github.com/thedividend/dividend/pkg/logger"
	"github.com/thedividend/dividend/pkg/middleware"
	"go.uber.org/zap"
)

// HistoryRecorder notes that a signed-in reader opened an article.
type HistoryRecorder interface {
	RecordRead(ctx context.Context, userID, articleID string) error
}

type articleRequest struct {
	Title         string          `json:"title"`
	Slug          string          `json:"slug"`
	Excerpt       string          `json:"excerpt"`
	BannerURL     string          `json:"banner_url"`
	Content       json.RawMessage `json:"content"`
	CategoryID    string          `json:"category_id"`
	Status        article.Status  `json:"status"`
	SEOKeywords   []string        `json:"seo_keywords"`
	IsFeatured    bool            `json:"is_featured"`
	IsEditorsPick bool            `json:"is_editors_pick"`
}

type patchRequest struct {
	Title         *string         `json:"title"`
	Slug          *string         `json:"slug"`
	Excerpt       *string         `json:"excerpt"`
	BannerURL     *string         `json:"banner_url"`
	Content       json.RawMessage `json:"content"`
	CategoryID    *string         `json:"category_id"`
	Status        *article.Status `json:"status"`
	SEOKeywords   []string        `json:"seo_keywords"`
	IsFeatured    *bool           `json:"is_featured"`
	IsEditorsPick *bool           `json:"is_editors_pick"`
}

type listResponse struct {
	Items    []*article.Article `json:"items"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"pageSize"`
}

// RegisterArticleRoutes mounts reader routes on public (which should carry
// OptionalAuth so reads can be attributed) and editor routes on admin.
// history may be nil.
func RegisterArticleRoutes(public, admin gin.IRoutes, svc *service.Service, history HistoryRecorder) {
	public.GET("/articles", func(c *gin.Context) {
		q := listQuery(c)
		list(c, svc, q)
	})

	public.GET("/articles/:slug", func(c *gin.Context) {
		a, err := svc.Read(c.Request.Context(), c.Param("slug"))
		if err != nil {
			writeError(c, err)
			return
		}
		if p := middleware.CurrentPrincipal(c); p != nil && history != nil {
			if err := history.RecordRead(c.Request.Context(), p.UserID, a.ID); err != nil {
				logger.L().Warn("reading history not recorded", zap.String("user", p.UserID), zap.String("article", a.ID), zap.Error(err))
			}
		}
		c.JSON(http.StatusOK, a)
	})

	public.GET("/articles/:slug/html", func(c *gin.Context) {
		a, err := svc.Published(c.Request.Context(), c.Param("slug"))
		if err != nil {
			writeError(c, err)
			return
		}
		html, err := svc.RenderHTML(c.Request.Context(), a)
		if err != nil {
			logger.L().Error("render failed", zap.String("id", a.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render article"})
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
	})

	admin.GET("/admin/articles", func(c *gin.Context) {
		q := listQuery(c)
		q.IncludeDrafts = true
		list(c, svc, q)
	})

	admin.POST("/admin/articles", func(c *gin.Context) {
		var req articleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		author := ""
		if p := middleware.CurrentPrincipal(c); p != nil {
			author = p.UserID
		}
		a, err := svc.Create(c.Request.Context(), author, service.Input{
			Title:         req.Title,
			Slug:          req.Slug,
			Excerpt:       req.Excerpt,
			BannerURL:     req.BannerURL,
			Content:       req.Content,
			CategoryID:    req.CategoryID,
			Status:        req.Status,
			SEOKeywords:   req.SEOKeywords,
			IsFeatured:    req.IsFeatured,
			IsEditorsPick: req.IsEditorsPick,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, a)
	})

	admin.PATCH("/admin/articles/:id", func(c *gin.Context) {
		var req patchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		a, err := svc.Update(c.Request.Context(), c.Param("id"), article.Patch{
			Title:         req.Title,
			Slug:          req.Slug,
			Excerpt:       req.Excerpt,
			BannerURL:     req.BannerURL,
			Content:       req.Content,
			CategoryID:    req.CategoryID,
			Status:        req.Status,
			SEOKeywords:   req.SEOKeywords,
			IsFeatured:    req.IsFeatured,
			IsEditorsPick: req.IsEditorsPick,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, a)
	})

	admin.DELETE("/admin/articles/:id", func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	admin.POST("/admin/articles/:id/featured", func(c *gin.Context) {
		a, err := svc.ToggleFeatured(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, a)
	})

	admin.POST("/admin/articles/:id/editors-pick", func(c *gin.Context) {
		a, err := svc.ToggleEditorsPick(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, a)
	})
}

func listQuery(c *gin.Context) article.ListQuery {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("pageSize"))
	q := article.ListQuery{
		CategoryID:   c.Query("category"),
		FeaturedOnly: c.Query("featured") == "true",
		EditorsPick:  c.Query("editors_pick") == "true",
		Page:         page,
		PageSize:     size,
	}
	q.Normalize()
	return q
}

func list(c *gin.Context, svc *service.Service, q article.ListQuery) {
	items, total, err := svc.List(c.Request.Context(), q)
	if err != nil {
		logger.L().Error("list articles failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list articles"})
		return
	}
	c.JSON(http.StatusOK, listResponse{Items: items, Total: total, Page: q.Page, PageSize: q.PageSize})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, article.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, article.ErrSlugTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "slug already in use"})
	case errors.Is(err, service.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.L().Error("article request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
