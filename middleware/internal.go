package middleware

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// InternalAuthMiddleware guards operational endpoints (worker stats) with a
// shared key instead of user auth.
func InternalAuthMiddleware(c *gin.Context) {
	apiKey := c.Request.Header.Get("X-API-Key")
	if apiKey == "" || apiKey != os.Getenv("INTERNAL_API_KEY") {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		c.Abort()
		return
	}
	c.Next()
}
