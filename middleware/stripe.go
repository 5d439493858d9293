package middleware

import (
	"io"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeEventKey is the gin context key holding the verified webhook event.
const StripeEventKey = "stripe_event"

// Stripe recommends capping webhook bodies; 64KB covers every event we handle.
const maxWebhookBody = int64(65536)

// StripeWebhookVerifier checks the Stripe-Signature header against the
// endpoint secret and stores the parsed event in the context.
func StripeWebhookVerifier(c *gin.Context) {
	secret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	if secret == "" {
		log.Printf("STRIPE_WEBHOOK_SECRET environment variable not set")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "webhook not configured"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	b, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Printf("io.ReadAll: %v", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := webhook.ConstructEvent(b, c.Request.Header.Get("Stripe-Signature"), secret)
	if err != nil {
		log.Printf("webhook.ConstructEvent: %v", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Set(StripeEventKey, event)
	c.Next()
}
