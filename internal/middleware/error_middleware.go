package middleware

import (
	"chitchat/internal/transport/httpdto"
	"chitchat/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler renders the last error a handler attached with c.Error.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, body := httpdto.FromError(err)
		if l != nil && status >= 500 {
			l.WithContext(c.Request.Context()).Error("request failed", zap.Error(err))
		}
		c.JSON(status, body)
	}
}
