package middleware

import (
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

func CorsMiddleware(c *gin.Context) {
	frontend := os.Getenv("FRONTEND_URL")
	if frontend == "" {
		frontend = "http://localhost:3000"
	}

	switch {
	case strings.HasPrefix(c.Request.URL.Path, "/api/webhooks"):
		// Stripe posts here directly; no credentials involved
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	default:
		c.Writer.Header().Set("Access-Control-Allow-Origin", frontend)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
	}

	c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, PUT, DELETE")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

	if c.Request.Method == "OPTIONS" {
		c.AbortWithStatus(204)
		return
	}

	c.Next()
}
