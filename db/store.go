package db

import (
	"context"
	"time"

	"contentpilot/api/models"
)

// Users is the active billing/quota store. InitDB installs the Postgres
// implementation; tests swap in a MemoryStore.
var Users Store

// CheckoutUpdate is everything a completed checkout writes onto the user row.
type CheckoutUpdate struct {
	UserID         string
	Plan           string
	Limit          int
	Period         string
	CustomerID     string
	SubscriptionID string
	ResetDate      time.Time
}

// Store holds the user/subscription rows, one-time purchases and the
// processed-webhook ledger. All Stripe reconciliation goes through it.
type Store interface {
	EnsureUser(ctx context.Context, supabaseID, email string) (*models.User, error)
	GetUserBySupabaseID(ctx context.Context, supabaseID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	SetStripeCustomerID(ctx context.Context, userID, customerID string) error
	SetSubscriptionID(ctx context.Context, userID, subscriptionID string) error
	SetSubscriptionStatus(ctx context.Context, userID string, status models.SubscriptionStatus) error

	ApplyCheckout(ctx context.Context, update CheckoutUpdate) error
	UpdateStatusBySubscriptionID(ctx context.Context, subscriptionID string, status models.SubscriptionStatus) error
	ClearSubscription(ctx context.Context, subscriptionID string) error
	ResetQuotaBySubscriptionID(ctx context.Context, subscriptionID string, resetDate time.Time) error
	DemoteToFree(ctx context.Context, userID string) error

	IncrementUsage(ctx context.Context, userID string) error
	CreateOneTimePurchase(ctx context.Context, purchase *models.OneTimePurchase) error
	ConsumeOneTimePurchase(ctx context.Context, userID string) error

	MarkEventProcessed(ctx context.Context, eventID, eventType string) (bool, error)
	GetQuotaSummary(ctx context.Context, supabaseID string) (*models.QuotaSummary, error)
}
