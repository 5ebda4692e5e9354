package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/thedividend/dividend/internal/notifications"
	"github.com/thedividend/dividend/pkg/logger"
	"github.com/thedividend/dividend/pkg/middleware"
)

// RegisterNotificationRoutes mounts the notification API on rg. rg must
// already run AuthMiddleware. hub may be nil, which disables the stream.
func RegisterNotificationRoutes(rg *gin.RouterGroup, svc *notifications.Service, hub *notifications.Hub) {
	rg.GET("/notifications", func(c *gin.Context) {
		p := middleware.CurrentPrincipal(c)
		limit, _ := strconv.Atoi(c.Query("limit"))
		list, err := svc.List(c.Request.Context(), p.UserID, limit)
		if err != nil {
			logger.Errorf("list notifications for %s: %v", p.UserID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notifications"})
			return
		}
		unread, err := svc.UnreadCount(c.Request.Context(), p.UserID)
		if err != nil {
			logger.Warnf("count unread for %s: %v", p.UserID, err)
		}
		c.JSON(http.StatusOK, gin.H{"notifications": list, "unread": unread})
	})

	rg.PATCH("/notifications/:id/read", func(c *gin.Context) {
		p := middleware.CurrentPrincipal(c)
		if err := svc.MarkRead(c.Request.Context(), p.UserID, c.Param("id")); err != nil {
			if errors.Is(err, notifications.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update notification"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "read": true})
	})

	rg.POST("/notifications/read-all", func(c *gin.Context) {
		p := middleware.CurrentPrincipal(c)
		n, err := svc.MarkAllRead(c.Request.Context(), p.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update notifications"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": n})
	})

	if hub != nil {
		rg.GET("/notifications/stream", func(c *gin.Context) {
			p := middleware.CurrentPrincipal(c)
			notifications.ServeWs(hub, c.Writer, c.Request, p.UserID)
		})
	}
}
