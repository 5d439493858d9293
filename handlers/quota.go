package handlers

import (
	"net/http"

	"contentpilot/api/db"
	"contentpilot/api/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HandleGetQuota returns the current quota summary. The user row is
// created on first contact, so a fresh signup always gets a free-plan answer.
func HandleGetQuota(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := db.Users.EnsureUser(ctx, claims.Sub, claims.Email); err != nil {
		logger.Get().Error("failed to ensure user row", zap.String("supabase_id", claims.Sub), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	summary, err := db.Users.GetQuotaSummary(ctx, claims.Sub)
	if err != nil {
		logger.Get().Error("failed to load quota summary", zap.String("supabase_id", claims.Sub), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"canGenerate":               summary.CanGenerate(),
		"plan":                      summary.Plan,
		"articlesUsed":              summary.ArticlesUsed,
		"articlesLimit":             summary.ArticlesLimit,
		"articlesRemaining":         summary.ArticlesRemaining,
		"resetDate":                 summary.ResetDate,
		"oneTimePurchasesAvailable": summary.OneTimeAvailable,
		"hasUnlimited":              summary.HasUnlimited,
	})
}
