package middleware

import (
	"strings"

	"virtual-economy/pkg/errutil"

	"github.com/gin-gonic/gin"
)

// HeaderUserID carries the caller identity resolved by the API gateway.
const HeaderUserID = "X-User-ID"

const userIDKey = "user_id"

// UserID copies the gateway identity header into the gin context. Missing
// identity is allowed; handlers that need it call RequireUser.
func UserID() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := strings.TrimSpace(c.GetHeader(HeaderUserID)); id != "" {
			c.Set(userIDKey, id)
		}
		c.Next()
	}
}

func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// RequireUser returns the caller id or an Unauthorized error.
func RequireUser(c *gin.Context) (string, error) {
	id := GetUserID(c)
	if id == "" {
		return "", errutil.Unauthorized("missing "+HeaderUserID+" header", nil)
	}
	return id, nil
}
