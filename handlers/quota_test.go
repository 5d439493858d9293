package handlers

import (
	"net/http"
	"testing"

	"contentpilot/api/models"
)

func TestGetQuota_FreshSignupGetsFreePlan(t *testing.T) {
	store := setupStore(t)

	c, w := authedContext(t, http.MethodGet, "/api/quota", nil)
	HandleGetQuota(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["plan"] != models.PlanFree {
		t.Errorf("expected free plan, got %v", body["plan"])
	}
	if body["canGenerate"] != false {
		t.Errorf("free plan with no purchases cannot generate, got %v", body["canGenerate"])
	}

	// The row was created on first contact.
	if _, err := store.GetUserBySupabaseID(c.Request.Context(), "sb_1"); err != nil {
		t.Errorf("expected user row created: %v", err)
	}
}

func TestGetQuota_SubscriberSummary(t *testing.T) {
	store := setupStore(t)
	subscribedUser(store, 12, 30)

	c, w := authedContext(t, http.MethodGet, "/api/quota", nil)
	HandleGetQuota(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["plan"] != models.PlanPro {
		t.Errorf("expected pro plan, got %v", body["plan"])
	}
	if body["articlesUsed"] != float64(12) {
		t.Errorf("expected articlesUsed 12, got %v", body["articlesUsed"])
	}
	if body["articlesRemaining"] != float64(18) {
		t.Errorf("expected articlesRemaining 18, got %v", body["articlesRemaining"])
	}
	if body["canGenerate"] != true {
		t.Errorf("expected canGenerate true, got %v", body["canGenerate"])
	}
	if body["hasUnlimited"] != false {
		t.Errorf("expected hasUnlimited false, got %v", body["hasUnlimited"])
	}
}

func TestGetQuota_UnlimitedPlan(t *testing.T) {
	store := setupStore(t)
	user := subscribedUser(store, 999, models.UnlimitedArticles)
	user.Plan = strPtr(models.PlanAgency)

	c, w := authedContext(t, http.MethodGet, "/api/quota", nil)
	HandleGetQuota(c)

	body := decodeBody(t, w)
	if body["hasUnlimited"] != true {
		t.Errorf("expected hasUnlimited true, got %v", body["hasUnlimited"])
	}
	if body["canGenerate"] != true {
		t.Errorf("unlimited plan can always generate, got %v", body["canGenerate"])
	}
}

func TestGetQuota_OneTimePurchaseOnly(t *testing.T) {
	store := setupStore(t)
	user := &models.User{SupabaseID: "sb_1", Email: "test@example.com"}
	store.AddUser(user)
	store.Purchases = append(store.Purchases, &models.OneTimePurchase{
		ID: "otp_1", UserID: user.ID, StripeSessionID: "cs_1", Articles: 5,
	})

	c, w := authedContext(t, http.MethodGet, "/api/quota", nil)
	HandleGetQuota(c)

	body := decodeBody(t, w)
	if body["oneTimePurchasesAvailable"] != float64(1) {
		t.Errorf("expected 1 one-time purchase, got %v", body["oneTimePurchasesAvailable"])
	}
	if body["canGenerate"] != true {
		t.Errorf("an unused purchase allows generation, got %v", body["canGenerate"])
	}
}
