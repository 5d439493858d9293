package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"contentpilot/api/db"
	"contentpilot/api/llm"
	"contentpilot/api/logger"
	"contentpilot/api/models"
	"contentpilot/api/mongodb"
	"contentpilot/api/sse"
	"contentpilot/api/worker"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GenerationPool is set from main before the router starts serving.
var GenerationPool *worker.Pool

// LLM seams, swappable in tests.
var (
	generateArticle = llm.GenerateArticle
	streamArticle   = llm.StreamArticle
)

// consumeQuota spends one generation: subscription allowance first, then
// one-time purchases.
func consumeQuota(ctx context.Context, user *models.User, summary *models.QuotaSummary) error {
	switch {
	case summary.HasUnlimited:
		return nil
	case summary.ArticlesRemaining > 0:
		return db.Users.IncrementUsage(ctx, user.ID)
	case summary.OneTimeAvailable > 0:
		return db.Users.ConsumeOneTimePurchase(ctx, user.ID)
	default:
		return fmt.Errorf("quota exhausted for user %s", user.ID)
	}
}

// HandleGenerateArticle generates one article synchronously.
func HandleGenerateArticle(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}

	var req models.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "keyword is required"})
		return
	}

	ctx := c.Request.Context()
	user, err := db.Users.EnsureUser(ctx, claims.Sub, claims.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	summary, err := db.Users.GetQuotaSummary(ctx, claims.Sub)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !summary.CanGenerate() {
		c.JSON(http.StatusForbidden, gin.H{"error": "article quota exhausted", "canGenerate": false})
		return
	}

	title, content, err := generateArticle(ctx, req)
	if err != nil {
		logger.Get().Error("article generation failed",
			zap.String("user_id", user.ID),
			zap.String("keyword", req.Keyword),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := consumeQuota(ctx, user, summary); err != nil {
		logger.Get().Error("failed to consume quota", zap.String("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	article := &models.Article{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Title:     title,
		Keyword:   req.Keyword,
		Content:   content,
		WordCount: llm.CountWords(content),
		Status:    models.ArticleStatusDraft,
		CreatedAt: time.Now().UTC(),
	}
	if err := mongodb.Articles.CreateArticle(ctx, article); err != nil {
		logger.Get().Error("failed to store article", zap.String("article_id", article.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	logger.Get().Info("article generated",
		zap.String("user_id", user.ID),
		zap.String("article_id", article.ID),
		zap.Int("word_count", article.WordCount))
	c.JSON(http.StatusOK, article)
}

// HandleGenerateArticleAsync queues generation on the worker pool; the
// client follows progress on the SSE stream endpoint.
func HandleGenerateArticleAsync(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}

	var req models.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "keyword is required"})
		return
	}

	ctx := c.Request.Context()
	user, err := db.Users.EnsureUser(ctx, claims.Sub, claims.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	summary, err := db.Users.GetQuotaSummary(ctx, claims.Sub)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !summary.CanGenerate() {
		c.JSON(http.StatusForbidden, gin.H{"error": "article quota exhausted", "canGenerate": false})
		return
	}

	if GenerationPool == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "generation workers not running"})
		return
	}

	job := &models.GenerationJob{
		JobID:      uuid.NewString(),
		UserID:     user.ID,
		SupabaseID: claims.Sub,
		Request:    req,
		EnqueuedAt: time.Now().Unix(),
	}
	if !GenerationPool.Submit(job) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "generation queue full, try again shortly"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"job_id": job.JobID})
}

// RunGenerationJob is the worker pool handler for queued generations.
func RunGenerationJob(ctx context.Context, job *models.GenerationJob) {
	defer sse.SendDone(job.JobID)

	title, content, err := streamArticle(ctx, job.Request, func(chunk string) {
		sse.SendChunk(job.JobID, chunk)
	})
	if err != nil {
		logger.Get().Error("async article generation failed",
			zap.String("job_id", job.JobID),
			zap.Error(err))
		return
	}

	user, err := db.Users.GetUserBySupabaseID(ctx, job.SupabaseID)
	if err != nil {
		logger.Get().Error("generation finished for unknown user",
			zap.String("job_id", job.JobID),
			zap.Error(err))
		return
	}

	summary, err := db.Users.GetQuotaSummary(ctx, job.SupabaseID)
	if err == nil {
		if err := consumeQuota(ctx, user, summary); err != nil {
			logger.Get().Error("failed to consume quota after async generation",
				zap.String("job_id", job.JobID),
				zap.Error(err))
		}
	}

	article := &models.Article{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Title:     title,
		Keyword:   job.Request.Keyword,
		Content:   content,
		WordCount: llm.CountWords(content),
		Status:    models.ArticleStatusDraft,
		CreatedAt: time.Now().UTC(),
	}
	if err := mongodb.Articles.CreateArticle(ctx, article); err != nil {
		logger.Get().Error("failed to store async article",
			zap.String("job_id", job.JobID),
			zap.Error(err))
	}
}

func HandleListArticles(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	user, err := db.Users.EnsureUser(ctx, claims.Sub, claims.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	articles, err := mongodb.Articles.GetArticlesByUserID(ctx, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if articles == nil {
		articles = []models.Article{}
	}
	c.JSON(http.StatusOK, gin.H{"articles": articles})
}

func HandleGetArticle(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
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

	article, err := mongodb.Articles.GetArticleByID(ctx, user.ID, c.Param("articleID"))
	if errors.Is(err, mongodb.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, article)
}

func HandleDeleteArticle(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
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

	err = mongodb.Articles.DeleteArticle(ctx, user.ID, c.Param("articleID"))
	if errors.Is(err, mongodb.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
