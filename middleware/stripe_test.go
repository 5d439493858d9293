package middleware

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const webhookSecret = "whsec_test_secret"

func signedHeader(payload []byte, secret string, at time.Time) string {
	signature := webhook.ComputeSignature(at, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(signature))
}

func runVerifier(t *testing.T, payload []byte, signature string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewReader(payload))
	if signature != "" {
		c.Request.Header.Set("Stripe-Signature", signature)
	}
	StripeWebhookVerifier(c)
	return c, w
}

func TestStripeWebhookVerifier_ValidSignature(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", webhookSecret)

	// ConstructEvent rejects events from a different API version.
	payload := []byte(fmt.Sprintf(
		`{"id":"evt_1","type":"customer.created","api_version":%q,"data":{"object":{"id":"cus_1"}}}`,
		stripe.APIVersion))
	c, w := runVerifier(t, payload, signedHeader(payload, webhookSecret, time.Now()))

	if w.Code != http.StatusOK {
		t.Fatalf("expected pass-through, got %d: %s", w.Code, w.Body.String())
	}
	value, exists := c.Get(StripeEventKey)
	if !exists {
		t.Fatal("expected event stored in context")
	}
	event, ok := value.(stripe.Event)
	if !ok {
		t.Fatalf("unexpected event type %T", value)
	}
	if event.ID != "evt_1" {
		t.Errorf("expected event id evt_1, got %q", event.ID)
	}
}

func TestStripeWebhookVerifier_BadSignature(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", webhookSecret)

	payload := []byte(`{"id":"evt_1"}`)
	_, w := runVerifier(t, payload, signedHeader(payload, "whsec_wrong", time.Now()))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad signature, got %d", w.Code)
	}
}

func TestStripeWebhookVerifier_TamperedPayload(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", webhookSecret)

	payload := []byte(`{"id":"evt_1"}`)
	header := signedHeader(payload, webhookSecret, time.Now())
	_, w := runVerifier(t, []byte(`{"id":"evt_2"}`), header)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for tampered payload, got %d", w.Code)
	}
}

func TestStripeWebhookVerifier_MissingSignature(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", webhookSecret)

	_, w := runVerifier(t, []byte(`{}`), "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without signature, got %d", w.Code)
	}
}

func TestStripeWebhookVerifier_SecretUnset(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")

	payload := []byte(`{}`)
	_, w := runVerifier(t, payload, signedHeader(payload, webhookSecret, time.Now()))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 when secret unset, got %d", w.Code)
	}
}

func TestInternalAuthMiddleware(t *testing.T) {
	t.Setenv("INTERNAL_API_KEY", "internal-key")

	cases := []struct {
		name   string
		key    string
		expect int
	}{
		{"valid key", "internal-key", http.StatusOK},
		{"wrong key", "nope", http.StatusUnauthorized},
		{"missing key", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/internal/worker/stats", nil)
			if tc.key != "" {
				c.Request.Header.Set("X-API-Key", tc.key)
			}
			InternalAuthMiddleware(c)
			if w.Code != tc.expect {
				t.Errorf("expected %d, got %d", tc.expect, w.Code)
			}
		})
	}
}

func TestInternalAuthMiddleware_EmptyConfiguredKey(t *testing.T) {
	t.Setenv("INTERNAL_API_KEY", "")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/internal/worker/stats", nil)
	InternalAuthMiddleware(c)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("an unset key must reject everything, got %d", w.Code)
	}
}
