package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"contentpilot/api/db"
	"contentpilot/api/logger"
	"contentpilot/api/middleware"
	"contentpilot/api/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/subscription"
	"go.uber.org/zap"
)

// A renewal invoice advances the reset date by one 30-day cycle.
const quotaCycle = 30 * 24 * time.Hour

// Stripe API seams, swappable in tests.
var (
	newCheckoutSession       = session.New
	newStripeCustomer        = customer.New
	cancelStripeSubscription = subscription.Cancel
	updateStripeSubscription = subscription.Update
	findStripeSubscription   = findSubscriptionByCustomer
)

func frontendURL() string {
	if url := os.Getenv("FRONTEND_URL"); url != "" {
		return url
	}
	return "http://localhost:3000"
}

// HandleCreateCheckoutSession opens a Stripe hosted checkout for the
// authenticated user. Any pre-existing subscription is cancelled first so a
// user never carries two subscriptions at once.
func HandleCreateCheckoutSession(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}

	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "priceId is required"})
		return
	}

	ctx := c.Request.Context()
	user, err := db.Users.GetUserBySupabaseID(ctx, claims.Sub)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		logger.Get().Error("failed to load user for checkout", zap.String("supabase_id", claims.Sub), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if subID := user.SubscriptionID(); subID != "" {
		// Already-canceled subscriptions land here too; a real Stripe outage
		// looks the same, so keep the log loud enough to notice.
		if _, err := cancelStripeSubscription(subID, nil); err != nil {
			logger.Get().Warn("could not cancel existing subscription before checkout",
				zap.String("user_id", user.ID),
				zap.String("subscription_id", subID),
				zap.Error(err))
		}
	}

	customerID := user.CustomerID()
	if customerID == "" {
		cust, err := newStripeCustomer(&stripe.CustomerParams{
			Email:    stripe.String(user.Email),
			Metadata: map[string]string{"user_id": user.ID},
		})
		if err != nil {
			logger.Get().Error("failed to create Stripe customer", zap.String("user_id", user.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		customerID = cust.ID
		if err := db.Users.SetStripeCustomerID(ctx, user.ID, customerID); err != nil {
			logger.Get().Error("failed to persist Stripe customer id", zap.String("user_id", user.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	mode := stripe.CheckoutSessionModeSubscription
	if models.IsOneTimePrice(req.PriceID) {
		mode = stripe.CheckoutSessionModePayment
	}

	frontend := frontendURL()
	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(mode)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(frontend + "/dashboard?checkout=success"),
		CancelURL:  stripe.String(frontend + "/pricing"),
		Metadata: map[string]string{
			"user_id":  user.ID,
			"price_id": req.PriceID,
		},
	}

	sess, err := newCheckoutSession(params)
	if err != nil {
		logger.Get().Error("failed to create checkout session", zap.String("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	logger.Get().Info("checkout session created",
		zap.String("user_id", user.ID),
		zap.String("price_id", req.PriceID),
		zap.String("mode", string(mode)))
	c.JSON(http.StatusOK, gin.H{"url": sess.URL})
}

// HandleStripeWebhook reconciles local subscription state with Stripe.
// Data mismatches (unknown price, missing user) and store failures are
// logged but still acknowledged, so Stripe does not retry events we can
// never process.
func HandleStripeWebhook(c *gin.Context) {
	value, exists := c.Get(middleware.StripeEventKey)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook event missing from context"})
		return
	}
	event, ok := value.(stripe.Event)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unexpected webhook event type"})
		return
	}

	ctx := c.Request.Context()
	fresh, err := db.Users.MarkEventProcessed(ctx, event.ID, string(event.Type))
	if err != nil {
		logger.Get().Error("failed to record webhook event", zap.String("event_id", event.ID), zap.Error(err))
		respondReceived(c)
		return
	}
	if !fresh {
		logger.Get().Info("skipping replayed webhook event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
		respondReceived(c)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		err = handleCheckoutCompleted(ctx, event)
	case "customer.subscription.updated":
		err = handleSubscriptionUpdated(ctx, event)
	case "customer.subscription.deleted":
		err = handleSubscriptionDeleted(ctx, event)
	case "invoice.payment_succeeded":
		err = handleInvoicePaymentSucceeded(ctx, event)
	case "invoice.payment_failed":
		err = handleInvoicePaymentFailed(ctx, event)
	default:
		logger.Get().Debug("unhandled webhook event type", zap.String("event_type", string(event.Type)))
	}

	if err != nil {
		logger.Get().Error("webhook event processing failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
	respondReceived(c)
}

func respondReceived(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return err
	}

	priceID := sess.Metadata["price_id"]
	spec, ok := models.LookupPrice(priceID)
	if !ok {
		logger.Get().Warn("checkout completed for unmapped price id",
			zap.String("session_id", sess.ID),
			zap.String("price_id", priceID))
		return nil
	}

	email := sess.CustomerEmail
	if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
		email = sess.CustomerDetails.Email
	}
	user, err := db.Users.GetUserByEmail(ctx, email)
	if errors.Is(err, db.ErrNotFound) {
		logger.Get().Warn("checkout completed for unknown user",
			zap.String("session_id", sess.ID),
			zap.String("email", email))
		return nil
	}
	if err != nil {
		return err
	}

	customerID := ""
	if sess.Customer != nil {
		customerID = sess.Customer.ID
	}
	subscriptionID := ""
	if sess.Subscription != nil {
		subscriptionID = sess.Subscription.ID
	}

	err = db.Users.ApplyCheckout(ctx, db.CheckoutUpdate{
		UserID:         user.ID,
		Plan:           spec.Plan,
		Limit:          spec.Limit,
		Period:         spec.Period,
		CustomerID:     customerID,
		SubscriptionID: subscriptionID,
		ResetDate:      time.Now().UTC().Add(quotaCycle),
	})
	if err != nil {
		return err
	}

	if spec.Period == models.PeriodOneTime {
		err = db.Users.CreateOneTimePurchase(ctx, &models.OneTimePurchase{
			ID:              uuid.NewString(),
			UserID:          user.ID,
			StripeSessionID: sess.ID,
			Plan:            spec.Plan,
			Articles:        spec.Limit,
			CreatedAt:       time.Now().UTC(),
		})
		if err != nil {
			return err
		}
	}

	logger.Get().Info("checkout applied",
		zap.String("user_id", user.ID),
		zap.String("plan", spec.Plan),
		zap.String("period", spec.Period))
	return nil
}

func handleSubscriptionUpdated(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return err
	}

	status := models.SubscriptionStatus(sub.Status)
	if sub.Status == stripe.SubscriptionStatusActive && sub.CancelAtPeriodEnd {
		status = models.SubscriptionCanceling
	}

	err := db.Users.UpdateStatusBySubscriptionID(ctx, sub.ID, status)
	if errors.Is(err, db.ErrNotFound) {
		logger.Get().Warn("subscription update for unknown subscription", zap.String("subscription_id", sub.ID))
		return nil
	}
	return err
}

func handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return err
	}

	err := db.Users.ClearSubscription(ctx, sub.ID)
	if errors.Is(err, db.ErrNotFound) {
		// Repeated deletes are no-ops
		return nil
	}
	return err
}

// invoicePayload carries the only two invoice fields the webhook needs.
// The subscription reference moved under parent.subscription_details in
// newer Stripe API versions, so both locations are read.
type invoicePayload struct {
	ID            string `json:"id"`
	BillingReason string `json:"billing_reason"`
	Subscription  string `json:"subscription"`
	Parent        struct {
		SubscriptionDetails struct {
			Subscription string `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

func (p *invoicePayload) subscriptionID() string {
	if p.Subscription != "" {
		return p.Subscription
	}
	return p.Parent.SubscriptionDetails.Subscription
}

func handleInvoicePaymentSucceeded(ctx context.Context, event stripe.Event) error {
	var invoice invoicePayload
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return err
	}

	// Only renewals reset the quota; the initial invoice of a new
	// subscription was already handled by checkout.session.completed.
	if invoice.BillingReason != "subscription_cycle" {
		logger.Get().Debug("ignoring non-renewal invoice",
			zap.String("invoice_id", invoice.ID),
			zap.String("billing_reason", invoice.BillingReason))
		return nil
	}

	subscriptionID := invoice.subscriptionID()
	if subscriptionID == "" {
		logger.Get().Warn("renewal invoice without subscription id", zap.String("invoice_id", invoice.ID))
		return nil
	}

	err := db.Users.ResetQuotaBySubscriptionID(ctx, subscriptionID, time.Now().UTC().Add(quotaCycle))
	if errors.Is(err, db.ErrNotFound) {
		logger.Get().Warn("renewal invoice for unknown subscription", zap.String("subscription_id", subscriptionID))
		return nil
	}
	if err != nil {
		return err
	}

	logger.Get().Info("quota reset on renewal", zap.String("subscription_id", subscriptionID))
	return nil
}

func handleInvoicePaymentFailed(ctx context.Context, event stripe.Event) error {
	var invoice invoicePayload
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return err
	}

	subscriptionID := invoice.subscriptionID()
	if subscriptionID == "" {
		logger.Get().Warn("failed invoice without subscription id", zap.String("invoice_id", invoice.ID))
		return nil
	}

	err := db.Users.UpdateStatusBySubscriptionID(ctx, subscriptionID, models.SubscriptionPastDue)
	if errors.Is(err, db.ErrNotFound) {
		logger.Get().Warn("failed invoice for unknown subscription", zap.String("subscription_id", subscriptionID))
		return nil
	}
	return err
}

// HandleCancelSubscription flags the subscription to end at period close.
// The stored subscription id may be stale; when absent the customer's
// subscriptions are queried at Stripe and the stored id is repaired.
func HandleCancelSubscription(c *gin.Context) {
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

	subscriptionID := user.SubscriptionID()
	if subscriptionID == "" && user.CustomerID() != "" {
		sub, err := findStripeSubscription(user.CustomerID())
		if err != nil {
			logger.Get().Warn("could not list subscriptions for customer",
				zap.String("customer_id", user.CustomerID()),
				zap.Error(err))
		}
		if sub != nil {
			subscriptionID = sub.ID
			if err := db.Users.SetSubscriptionID(ctx, user.ID, subscriptionID); err != nil {
				logger.Get().Error("failed to repair stored subscription id",
					zap.String("user_id", user.ID),
					zap.Error(err))
			}
		}
	}

	if subscriptionID == "" {
		if !user.OnPaidPlan() {
			c.JSON(http.StatusOK, gin.H{"success": false, "message": "No active subscription to cancel"})
			return
		}
		// Paid plan with no subscription anywhere: inconsistent row, demote.
		if err := db.Users.DemoteToFree(ctx, user.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		logger.Get().Warn("demoted paid plan without subscription to free", zap.String("user_id", user.ID))
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Subscription records cleaned up; account moved to free plan"})
		return
	}

	sub, err := updateStripeSubscription(subscriptionID, &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	})
	if err != nil {
		logger.Get().Error("failed to cancel subscription at period end",
			zap.String("subscription_id", subscriptionID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := db.Users.SetSubscriptionStatus(ctx, user.ID, models.SubscriptionCanceling); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	response := gin.H{"success": true, "message": "Subscription will end at the close of the current billing period"}
	if end := subscriptionPeriodEnd(sub); end > 0 {
		response["accessUntil"] = time.Unix(end, 0).UTC().Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, response)
}

// HandleReactivateSubscription clears the pending cancellation.
func HandleReactivateSubscription(c *gin.Context) {
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

	subscriptionID := user.SubscriptionID()
	if subscriptionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no subscription to reactivate"})
		return
	}

	if _, err := updateStripeSubscription(subscriptionID, &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(false),
	}); err != nil {
		logger.Get().Error("failed to reactivate subscription",
			zap.String("subscription_id", subscriptionID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := db.Users.SetSubscriptionStatus(ctx, user.ID, models.SubscriptionActive); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Subscription reactivated"})
}

func findSubscriptionByCustomer(customerID string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String("all"),
	}
	params.Limit = stripe.Int64(5)
	iter := subscription.List(params)
	for iter.Next() {
		sub := iter.Subscription()
		if sub.Status != stripe.SubscriptionStatusCanceled {
			return sub, nil
		}
	}
	return nil, iter.Err()
}

// subscriptionPeriodEnd digs the current period end out of the first
// subscription item, where newer Stripe API versions keep it.
func subscriptionPeriodEnd(sub *stripe.Subscription) int64 {
	if sub == nil || sub.Items == nil || len(sub.Items.Data) == 0 {
		return 0
	}
	return sub.Items.Data[0].CurrentPeriodEnd
}
