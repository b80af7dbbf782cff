package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jakejheack/hanapp/internal/common"
)

func (h *Handler) ListNotifications(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	items, err := h.Notifications.List(c.Request.Context(), uid, limit)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50030, "failed to list notifications")
		return
	}
	common.OK(c, gin.H{"notifications": items})
}

func (h *Handler) UnreadCount(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	n, err := h.Notifications.UnreadCount(c.Request.Context(), uid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50031, "failed to count notifications")
		return
	}
	common.OK(c, gin.H{"unread_count": n})
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10004, "invalid notification id")
		return
	}

	if err := h.Notifications.MarkRead(c.Request.Context(), uid, id); err != nil {
		common.Fail(c, http.StatusInternalServerError, 50032, "failed to mark notification read")
		return
	}
	common.OK(c, gin.H{"id": id, "is_read": true})
}
