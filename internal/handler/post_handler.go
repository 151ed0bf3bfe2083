package handler

import (
	"fmt"
	"net/http"

	"chitchat/internal/services"
	"chitchat/internal/transport/httpdto"
	chitchat_errors "chitchat/pkg/errors"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	service *services.PostService
}

func NewPostHandler(service *services.PostService) *PostHandler {
	return &PostHandler{service: service}
}

func (h *PostHandler) ToggleLike(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	postID, ok := pathUUID(c, "postId")
	if !ok {
		return
	}

	liked, err := h.service.ToggleLike(c.Request.Context(), userID, postID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ToggleResponse{Active: liked}))
}

func (h *PostHandler) Likes(c *gin.Context) {
	postID, ok := pathUUID(c, "postId")
	if !ok {
		return
	}
	page, ok := pageParam(c)
	if !ok {
		return
	}

	users, err := h.service.ListLikes(c.Request.Context(), postID, page)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewPage(page, users)))
}

func (h *PostHandler) AddComment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	postID, ok := pathUUID(c, "postId")
	if !ok {
		return
	}
	var req httpdto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, fmt.Errorf("%w: %v", chitchat_errors.ErrInvalidInput, err))
		return
	}

	comment, err := h.service.AddComment(c.Request.Context(), userID, postID, req.Text)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(comment))
}

func (h *PostHandler) Comments(c *gin.Context) {
	postID, ok := pathUUID(c, "postId")
	if !ok {
		return
	}
	page, ok := pageParam(c)
	if !ok {
		return
	}

	comments, err := h.service.ListComments(c.Request.Context(), postID, page)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewPage(page, comments)))
}
