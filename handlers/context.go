package handlers

import (
	"net/http"

	"contentpilot/api/middleware"
	"contentpilot/api/models"

	"github.com/gin-gonic/gin"
)

// currentClaims pulls the verified Supabase claims out of the gin context,
// writing a 401 when they are missing.
func currentClaims(c *gin.Context) (*models.SupabaseClaims, bool) {
	user, exists := c.Get(middleware.UserKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return nil, false
	}

	claims, ok := user.(*models.SupabaseClaims)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user claims"})
		return nil, false
	}

	return claims, true
}
