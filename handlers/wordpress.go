package handlers

import (
	"errors"
	"net/http"

	"contentpilot/api/db"
	"contentpilot/api/logger"
	"contentpilot/api/models"
	"contentpilot/api/mongodb"
	"contentpilot/api/wordpress"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// newWordPressClient is a seam for tests.
var newWordPressClient = wordpress.NewClient

// HandleTestWordPress checks the supplied site credentials.
func HandleTestWordPress(c *gin.Context) {
	if _, ok := currentClaims(c); !ok {
		return
	}

	var req models.WordPressCredentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "siteUrl, username and appPassword are required"})
		return
	}

	client := newWordPressClient(req.SiteURL, req.Username, req.AppPassword)
	if err := client.TestConnection(c.Request.Context()); err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// HandlePublishToWordPress pushes a stored article to the user's site.
func HandlePublishToWordPress(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}

	var req models.WordPressPublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "articleId, siteUrl, username and appPassword are required"})
		return
	}

	ctx := c.Request.Context()
	user, err := db.Users.GetUserBySupabaseID(ctx, claims.Sub)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	article, err := mongodb.Articles.GetArticleByID(ctx, user.ID, req.ArticleID)
	if errors.Is(err, mongodb.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	client := newWordPressClient(req.SiteURL, req.Username, req.AppPassword)
	postID, err := client.PublishPost(ctx, wordpress.PostRequest{
		Title:   article.Title,
		Content: article.Content,
		Status:  req.Status,
	})
	if err != nil {
		logger.Get().Error("wordpress publish failed",
			zap.String("article_id", article.ID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := mongodb.Articles.MarkPublished(ctx, user.ID, article.ID, postID); err != nil {
		// The post exists on the site; report success but log the drift.
		logger.Get().Error("failed to record published state",
			zap.String("article_id", article.ID),
			zap.Int("wordpress_post_id", postID),
			zap.Error(err))
	}

	logger.Get().Info("article published to wordpress",
		zap.String("article_id", article.ID),
		zap.Int("wordpress_post_id", postID))
	c.JSON(http.StatusOK, gin.H{"success": true, "wordpressPostId": postID})
}
