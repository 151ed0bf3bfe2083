package handler

import (
	"fmt"
	"strconv"

	"chitchat/internal/services"
	chitchat_errors "chitchat/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// fail hands err to the error middleware and stops the chain.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		fail(c, chitchat_errors.ErrUnauthorized)
	}
	return userID, ok
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		fail(c, fmt.Errorf("%w: invalid %s", chitchat_errors.ErrInvalidInput, name))
		return uuid.Nil, false
	}
	return id, true
}

// pageParam reads ?page=, defaulting to the first page.
func pageParam(c *gin.Context) (int, bool) {
	value := c.Query("page")
	if value == "" {
		return 1, true
	}
	page, err := strconv.Atoi(value)
	if err != nil || page < 1 {
		fail(c, fmt.Errorf("%w: %q", chitchat_errors.ErrInvalidPage, value))
		return 0, false
	}
	return page, true
}
