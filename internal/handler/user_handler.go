package handler

import (
	"net/http"

	"chitchat/internal/services"
	"chitchat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	follows *services.FollowService
}

func NewUserHandler(follows *services.FollowService) *UserHandler {
	return &UserHandler{follows: follows}
}

func (h *UserHandler) ToggleFollow(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	targetID, ok := pathUUID(c, "userId")
	if !ok {
		return
	}

	following, err := h.follows.ToggleFollow(c.Request.Context(), userID, targetID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ToggleResponse{Active: following}))
}

func (h *UserHandler) Followers(c *gin.Context) {
	targetID, ok := pathUUID(c, "userId")
	if !ok {
		return
	}
	page, ok := pageParam(c)
	if !ok {
		return
	}

	users, err := h.follows.Followers(c.Request.Context(), targetID, page)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewPage(page, users)))
}

func (h *UserHandler) Followings(c *gin.Context) {
	targetID, ok := pathUUID(c, "userId")
	if !ok {
		return
	}
	page, ok := pageParam(c)
	if !ok {
		return
	}

	users, err := h.follows.Followings(c.Request.Context(), targetID, page)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewPage(page, users)))
}
