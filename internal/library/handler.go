package library

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thedividend/dividend/pkg/middleware"
)

// RegisterRoutes mounts the reader's library. rg must be authenticated.
func RegisterRoutes(rg gin.IRoutes, svc *Service) {
	rg.GET("/bookmarks", func(c *gin.Context) {
		p := middleware.CurrentPrincipal(c)
		list, err := svc.Bookmarks(c.Request.Context(), p.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list bookmarks"})
			return
		}
		c.JSON(http.StatusOK, list)
	})

	rg.PUT("/bookmarks/:articleId", func(c *gin.Context) {
		p := middleware.CurrentPrincipal(c)
		b, err := svc.Bookmark(c.Request.Context(), p.UserID, c.Param("articleId"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save bookmark"})
			return
		}
		c.JSON(http.StatusOK, b)
	})

	rg.DELETE("/bookmarks/:articleId", func(c *gin.Context) {
		p := middleware.CurrentPrincipal(c)
		if err := svc.Unbookmark(c.Request.Context(), p.UserID, c.Param("articleId")); err != nil {
			if errors.Is(err, ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove bookmark"})
			return
		}
		c.Status(http.StatusNoContent)
	})

	rg.GET("/history", func(c *gin.Context) {
		p := middleware.CurrentPrincipal(c)
		list, err := svc.History(c.Request.Context(), p.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list history"})
			return
		}
		c.JSON(http.StatusOK, list)
	})
}
