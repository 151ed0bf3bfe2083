package handler

import (
	"net/http"

	"chitchat/internal/notifications"
	"chitchat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	aggregator *notifications.Aggregator
}

func NewNotificationHandler(aggregator *notifications.Aggregator) *NotificationHandler {
	return &NotificationHandler{aggregator: aggregator}
}

// List returns the caller's merged likes, comments and follows feed.
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	page, ok := pageParam(c)
	if !ok {
		return
	}

	records, err := h.aggregator.GetNotifications(c.Request.Context(), userID, page)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewPage(page, records)))
}
