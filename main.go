package main

import (
	"log"
	"os"
	"time"

	"contentpilot/api/db"
	"contentpilot/api/handlers"
	"contentpilot/api/llm"
	"contentpilot/api/logger"
	"contentpilot/api/middleware"
	"contentpilot/api/mongodb"
	"contentpilot/api/worker"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/stripe/stripe-go/v82"
)

func init() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	if err := logger.InitFromEnv(); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	if stripe.Key == "" {
		log.Printf("Warning: STRIPE_SECRET_KEY not set, billing endpoints will fail")
	}

	if err := llm.Init(); err != nil {
		log.Fatalf("Failed to initialize OpenAI client: %v", err)
	}
}

func main() {
	defer logger.Sync()

	router := gin.Default()
	router.SetTrustedProxies([]string{"127.0.0.1", "localhost"}) // Only trust local proxies
	router.Use(middleware.CorsMiddleware)

	// Initialize stores
	if err := db.InitDB(); err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer db.CloseDB()

	if err := mongodb.InitMongoDB(); err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongodb.CloseMongoDB()

	// Generation workers
	pool := worker.NewPool(4, handlers.RunGenerationJob)
	pool.Start()
	defer pool.Stop()
	handlers.GenerationPool = pool

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy", "timestamp": time.Now().UTC()})
	})

	// Stripe posts here; verification happens in middleware, not user auth
	router.POST("/api/webhooks/stripe", middleware.StripeWebhookVerifier, handlers.HandleStripeWebhook)

	// SSE authenticates from a query token inside the handler
	router.GET("/api/generation/stream/:jobID", handlers.HandleArticleStream)

	// Authenticated API routes
	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware)
	{
		api.POST("/billing/checkout", handlers.HandleCreateCheckoutSession)
		api.POST("/billing/cancel", handlers.HandleCancelSubscription)
		api.POST("/billing/reactivate", handlers.HandleReactivateSubscription)

		api.GET("/quota", handlers.HandleGetQuota)

		api.POST("/articles/generate", handlers.HandleGenerateArticle)
		api.POST("/articles/generate-async", handlers.HandleGenerateArticleAsync)
		api.GET("/articles", handlers.HandleListArticles)
		api.GET("/articles/:articleID", handlers.HandleGetArticle)
		api.DELETE("/articles/:articleID", handlers.HandleDeleteArticle)

		api.POST("/wordpress/test", handlers.HandleTestWordPress)
		api.POST("/wordpress/publish", handlers.HandlePublishToWordPress)
	}

	// Operational endpoints for internal tooling
	internal := router.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware)
	{
		internal.GET("/worker/stats", handlers.HandleWorkerStats)
	}

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
