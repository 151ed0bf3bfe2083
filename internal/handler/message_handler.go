package handler

import (
	"fmt"
	"net/http"

	"chitchat/internal/services"
	"chitchat/internal/transport/httpdto"
	chitchat_errors "chitchat/pkg/errors"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	service *services.MessageService
}

func NewMessageHandler(service *services.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

func (h *MessageHandler) Send(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	chatID, ok := pathUUID(c, "chatId")
	if !ok {
		return
	}
	var req httpdto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, fmt.Errorf("%w: %v", chitchat_errors.ErrInvalidInput, err))
		return
	}

	view, err := h.service.Send(c.Request.Context(), userID, chatID, req.Text)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(view))
}

func (h *MessageHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	chatID, ok := pathUUID(c, "chatId")
	if !ok {
		return
	}
	page, ok := pageParam(c)
	if !ok {
		return
	}

	views, err := h.service.List(c.Request.Context(), userID, chatID, page)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewPage(page, views)))
}
