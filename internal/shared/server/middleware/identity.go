package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"leakscan-backend/internal/shared/server/respond"
)

const userIDKey = "userId"

// Identity reads the caller identity from the X-User-Id header and stores it
// in context. Authentication happens upstream at the API gateway; this
// service only needs the resolved id.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		userID := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if userID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserIDFromContext fetches the user ID set by the identity middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
