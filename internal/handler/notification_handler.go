package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agendo-api/internal/middleware"
)

func (h *Handler) ListNotifications(c *gin.Context) {
	unread := c.Query("unread") == "true"
	out, err := h.store.ListNotifications(c.Request.Context(), middleware.UserID(c), unread, queryInt(c, "limit", 50, 200))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(out))
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	if err := h.store.MarkNotificationRead(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	n, err := h.store.MarkAllNotificationsRead(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}
