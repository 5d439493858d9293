package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"contentpilot/api/models"
	"contentpilot/api/mongodb"

	"github.com/gin-gonic/gin"
)

func setupArticleStore(t *testing.T) *mongodb.MemoryArticleStore {
	t.Helper()
	store := mongodb.NewMemoryArticleStore()
	mongodb.Articles = store
	return store
}

func stubGeneration(t *testing.T, title, content string) {
	t.Helper()
	orig := generateArticle
	t.Cleanup(func() { generateArticle = orig })
	generateArticle = func(ctx context.Context, req models.GenerateRequest) (string, string, error) {
		return title, content, nil
	}
}

func TestGenerateArticle_ConsumesSubscriptionQuota(t *testing.T) {
	store := setupStore(t)
	articles := setupArticleStore(t)
	stubGeneration(t, "How To Brew Coffee", "# How To Brew Coffee\n\nGrind fresh beans.")
	user := subscribedUser(store, 4, 30)

	c, w := authedContext(t, http.MethodPost, "/api/articles/generate",
		models.GenerateRequest{Keyword: "how to brew coffee"})
	HandleGenerateArticle(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if user.ArticlesUsed != 5 {
		t.Errorf("expected usage 5 after generation, got %d", user.ArticlesUsed)
	}
	if len(articles.Articles) != 1 {
		t.Fatalf("expected 1 stored article, got %d", len(articles.Articles))
	}
	stored := articles.Articles[0]
	if stored.Title != "How To Brew Coffee" {
		t.Errorf("unexpected title %q", stored.Title)
	}
	if stored.Status != models.ArticleStatusDraft {
		t.Errorf("new article should be a draft, got %q", stored.Status)
	}
	if stored.UserID != user.ID {
		t.Errorf("article owner %q, want %q", stored.UserID, user.ID)
	}
}

func TestGenerateArticle_QuotaExhausted(t *testing.T) {
	store := setupStore(t)
	articles := setupArticleStore(t)
	stubGeneration(t, "t", "c")
	subscribedUser(store, 30, 30)

	c, w := authedContext(t, http.MethodPost, "/api/articles/generate",
		models.GenerateRequest{Keyword: "anything"})
	HandleGenerateArticle(c)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if len(articles.Articles) != 0 {
		t.Errorf("no article should be stored, got %d", len(articles.Articles))
	}
}

func TestGenerateArticle_SpendsOneTimePurchaseWhenAllowanceGone(t *testing.T) {
	store := setupStore(t)
	setupArticleStore(t)
	stubGeneration(t, "t", "c")
	user := &models.User{SupabaseID: "sb_1", Email: "test@example.com"}
	store.AddUser(user)
	store.Purchases = append(store.Purchases, &models.OneTimePurchase{
		ID: "otp_1", UserID: user.ID, StripeSessionID: "cs_1", Articles: 5, CreatedAt: time.Now(),
	})

	c, w := authedContext(t, http.MethodPost, "/api/articles/generate",
		models.GenerateRequest{Keyword: "anything"})
	HandleGenerateArticle(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !store.Purchases[0].Used {
		t.Error("expected one-time purchase marked used")
	}
	if user.ArticlesUsed != 0 {
		t.Errorf("subscription counter should not move, got %d", user.ArticlesUsed)
	}
}

func TestGenerateArticle_UnlimitedPlanNeverIncrements(t *testing.T) {
	store := setupStore(t)
	setupArticleStore(t)
	stubGeneration(t, "t", "c")
	user := subscribedUser(store, 500, models.UnlimitedArticles)

	c, w := authedContext(t, http.MethodPost, "/api/articles/generate",
		models.GenerateRequest{Keyword: "anything"})
	HandleGenerateArticle(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if user.ArticlesUsed != 500 {
		t.Errorf("unlimited plan should not track usage here, got %d", user.ArticlesUsed)
	}
}

func TestGenerateArticle_MissingKeyword(t *testing.T) {
	store := setupStore(t)
	setupArticleStore(t)
	subscribedUser(store, 0, 30)

	c, w := authedContext(t, http.MethodPost, "/api/articles/generate", map[string]string{"tone": "casual"})
	HandleGenerateArticle(c)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestGenerateArticleAsync_QueuesJob(t *testing.T) {
	store := setupStore(t)
	setupArticleStore(t)
	subscribedUser(store, 0, 30)

	origPool := GenerationPool
	t.Cleanup(func() { GenerationPool = origPool })
	GenerationPool = nil

	c, w := authedContext(t, http.MethodPost, "/api/articles/generate-async",
		models.GenerateRequest{Keyword: "anything"})
	HandleGenerateArticleAsync(c)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 with no pool running, got %d", w.Code)
	}
}

func TestRunGenerationJob_StoresArticleAndConsumesQuota(t *testing.T) {
	store := setupStore(t)
	articles := setupArticleStore(t)
	user := subscribedUser(store, 2, 30)

	origStream := streamArticle
	t.Cleanup(func() { streamArticle = origStream })
	streamArticle = func(ctx context.Context, req models.GenerateRequest, onChunk func(string)) (string, string, error) {
		onChunk("# Title\n")
		onChunk("\nBody text.")
		return "Title", "# Title\n\nBody text.", nil
	}

	RunGenerationJob(context.Background(), &models.GenerationJob{
		JobID:      "job_1",
		UserID:     user.ID,
		SupabaseID: "sb_1",
		Request:    models.GenerateRequest{Keyword: "anything"},
	})

	if user.ArticlesUsed != 3 {
		t.Errorf("expected usage 3, got %d", user.ArticlesUsed)
	}
	if len(articles.Articles) != 1 {
		t.Fatalf("expected stored article, got %d", len(articles.Articles))
	}
	if articles.Articles[0].Content != "# Title\n\nBody text." {
		t.Errorf("unexpected content %q", articles.Articles[0].Content)
	}
}

func seedArticle(articles *mongodb.MemoryArticleStore, userID, articleID string) {
	articles.Articles = append(articles.Articles, models.Article{
		ID:        articleID,
		UserID:    userID,
		Title:     "Existing",
		Keyword:   "existing",
		Content:   "body",
		Status:    models.ArticleStatusDraft,
		CreatedAt: time.Now(),
	})
}

func TestListArticles_EmptyIsArrayNotNull(t *testing.T) {
	store := setupStore(t)
	setupArticleStore(t)
	store.AddUser(&models.User{SupabaseID: "sb_1", Email: "test@example.com"})

	c, w := authedContext(t, http.MethodGet, "/api/articles", nil)
	HandleListArticles(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	list, ok := body["articles"].([]interface{})
	if !ok {
		t.Fatalf("expected articles array, got %T", body["articles"])
	}
	if len(list) != 0 {
		t.Errorf("expected empty list, got %d entries", len(list))
	}
}

func TestGetArticle_ScopedToOwner(t *testing.T) {
	store := setupStore(t)
	articles := setupArticleStore(t)
	store.AddUser(&models.User{SupabaseID: "sb_1", Email: "test@example.com"})
	seedArticle(articles, "someone-else", "art_1")

	c, w := authedContext(t, http.MethodGet, "/api/articles/art_1", nil)
	c.Params = gin.Params{{Key: "articleID", Value: "art_1"}}
	HandleGetArticle(c)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for another user's article, got %d", w.Code)
	}
}

func TestDeleteArticle(t *testing.T) {
	store := setupStore(t)
	articles := setupArticleStore(t)
	user := &models.User{SupabaseID: "sb_1", Email: "test@example.com"}
	store.AddUser(user)
	seedArticle(articles, user.ID, "art_1")

	c, w := authedContext(t, http.MethodDelete, "/api/articles/art_1", nil)
	c.Params = gin.Params{{Key: "articleID", Value: "art_1"}}
	HandleDeleteArticle(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(articles.Articles) != 0 {
		t.Errorf("expected article removed, %d remain", len(articles.Articles))
	}

	c, w = authedContext(t, http.MethodDelete, "/api/articles/art_1", nil)
	c.Params = gin.Params{{Key: "articleID", Value: "art_1"}}
	HandleDeleteArticle(c)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", w.Code)
	}
}
