package delivery

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// APIKeyMiddleware guards the sync trigger endpoints. Identity itself
// lives with the external auth provider; requests carry the acting
// user in the X-User-ID header.
func APIKeyMiddleware(apiSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiSecret == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "API access is not configured"})
			c.Abort()
			return
		}
		if bearerToken(c) != apiSecret {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing API key"})
			c.Abort()
			return
		}
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "X-User-ID header required"})
			c.Abort()
			return
		}
		c.Set("userID", userID)
		c.Next()
	}
}

// CronMiddleware guards the scheduled endpoints with the cron secret.
func CronMiddleware(cronSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cronSecret == "" || bearerToken(c) != cronSecret {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}
