package middleware

import (
	"virtual-economy/pkg/errutil"
	"virtual-economy/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error renders the last handler error as {"error": {code, message, details}}.
func Error() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}

		v := errutil.From(last.Err)
		if v.Code == errutil.StatusInternal {
			logger.FromContext(c.Request.Context()).Error("request failed",
				zap.String("path", c.FullPath()),
				zap.String("request_id", GetRequestID(c)),
				zap.Error(last.Err),
			)
			v.Err = nil
		}

		c.JSON(v.Code.HTTPStatus(), v.JSON())
	}
}
