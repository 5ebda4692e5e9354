package books

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type createRequest struct {
	Title       string  `json:"title" binding:"required"`
	Author      string  `json:"author" binding:"required"`
	CoverURL    string  `json:"cover_url"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"gte=0"`
	CategoryID  string  `json:"category_id"`
	IsFeatured  bool    `json:"is_featured"`
}

// RegisterRoutes mounts the public catalogue on public and the admin
// operations on admin.
func RegisterRoutes(public, admin gin.IRoutes, repo Repository) {
	public.GET("/books", func(c *gin.Context) {
		list, err := repo.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list books"})
			return
		}
		c.JSON(http.StatusOK, list)
	})

	public.GET("/books/:id", func(c *gin.Context) {
		b, err := repo.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load book"})
			return
		}
		c.JSON(http.StatusOK, b)
	})

	admin.POST("/books", func(c *gin.Context) {
		var req createRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		now := time.Now().UTC()
		b := &Book{
			ID:          uuid.NewString(),
			Title:       strings.TrimSpace(req.Title),
			Author:      strings.TrimSpace(req.Author),
			CoverURL:    req.CoverURL,
			Description: req.Description,
			Price:       req.Price,
			CategoryID:  req.CategoryID,
			IsFeatured:  req.IsFeatured,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := repo.Create(c.Request.Context(), b); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create book"})
			return
		}
		c.JSON(http.StatusCreated, b)
	})

	admin.DELETE("/books/:id", func(c *gin.Context) {
		if err := repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
			if errors.Is(err, ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete book"})
			return
		}
		c.Status(http.StatusNoContent)
	})
}
