package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pulsefeed/engagement-core/domain"
	"github.com/pulsefeed/engagement-core/internal/rest/response"
)

// NotificationHandler represent the httphandler for notifications
type NotificationHandler struct {
	Service domain.NotificationUsecase
}

func NewNotificationHandler(svc domain.NotificationUsecase) *NotificationHandler {
	return &NotificationHandler{
		Service: svc,
	}
}

// Fetch pages the caller's notifications newest first.
func (h *NotificationHandler) Fetch(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	cursor := c.Query("cursor")
	items, nextCursor, err := h.Service.Fetch(c.Request.Context(), userID, cursor, listLimit(c))
	if err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}

	page := response.NotificationPage{
		Items:      make([]response.Notification, len(items)),
		NextCursor: nextCursor,
	}
	for i := range items {
		page.Items[i] = response.NewNotificationFromDomain(&items[i])
	}
	c.JSON(http.StatusOK, page)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	count, err := h.Service.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	if err := h.Service.MarkRead(c.Request.Context(), id, userID); err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	if err := h.Service.MarkAllRead(c.Request.Context(), userID); err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}
