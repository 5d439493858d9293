package models

import "time"

type User struct {
	ID                 string             `json:"id"`
	SupabaseID         string             `json:"supabase_id"`
	Email              string             `json:"email"`
	Plan               *string            `json:"plan"`
	BillingPeriod      *string            `json:"billing_period"`
	ArticlesLimit      int                `json:"articles_limit"`
	ArticlesUsed       int                `json:"articles_used"`
	QuotaResetDate     *time.Time         `json:"quota_reset_date"`
	StripeCustomerID   *string            `json:"stripe_customer_id"`
	StripeSubscription *string            `json:"stripe_subscription_id"`
	SubscriptionStatus SubscriptionStatus `json:"stripe_subscription_status"`
}

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCanceling SubscriptionStatus = "canceling"
	SubscriptionCanceled  SubscriptionStatus = "canceled"
	SubscriptionPastDue   SubscriptionStatus = "past_due"
	SubscriptionNone      SubscriptionStatus = ""
)

// PlanName returns the user's plan, or "free" when none is set.
func (u *User) PlanName() string {
	if u.Plan == nil || *u.Plan == "" {
		return PlanFree
	}
	return *u.Plan
}

// OnPaidPlan reports whether the user row claims a non-free plan.
func (u *User) OnPaidPlan() bool {
	return u.PlanName() != PlanFree
}

// SubscriptionID returns the stored Stripe subscription id, or "".
func (u *User) SubscriptionID() string {
	if u.StripeSubscription == nil {
		return ""
	}
	return *u.StripeSubscription
}

// CustomerID returns the stored Stripe customer id, or "".
func (u *User) CustomerID() string {
	if u.StripeCustomerID == nil {
		return ""
	}
	return *u.StripeCustomerID
}

type OneTimePurchase struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	StripeSessionID string    `json:"stripe_session_id"`
	Plan            string    `json:"plan"`
	Articles        int       `json:"articles"`
	Used            bool      `json:"used"`
	CreatedAt       time.Time `json:"created_at"`
}
