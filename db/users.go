package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"contentpilot/api/models"

	"github.com/google/uuid"
)

// PostgresStore implements Store on top of the shared DB handle.
type PostgresStore struct{}

const userColumns = `id, supabase_id, email, plan, billing_period, articles_limit,
	articles_used, quota_reset_date, stripe_customer_id, stripe_subscription_id,
	stripe_subscription_status`

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var status sql.NullString
	err := row.Scan(&user.ID, &user.SupabaseID, &user.Email, &user.Plan,
		&user.BillingPeriod, &user.ArticlesLimit, &user.ArticlesUsed,
		&user.QuotaResetDate, &user.StripeCustomerID, &user.StripeSubscription,
		&status)
	if err != nil {
		return nil, err
	}
	user.SubscriptionStatus = models.SubscriptionStatus(status.String)
	return user, nil
}

func (s *PostgresStore) EnsureUser(ctx context.Context, supabaseID, email string) (*models.User, error) {
	_, err := DB.ExecContext(ctx, `
		INSERT INTO users (id, supabase_id, email, articles_limit, articles_used)
		VALUES ($1, $2, $3, 0, 0)
		ON CONFLICT (supabase_id) DO NOTHING
	`, uuid.NewString(), supabaseID, email)
	if err != nil {
		return nil, fmt.Errorf("error ensuring user %s: %v", supabaseID, err)
	}
	return s.GetUserBySupabaseID(ctx, supabaseID)
}

func (s *PostgresStore) GetUserBySupabaseID(ctx context.Context, supabaseID string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE supabase_id = $1`, userColumns)
	user, err := scanUser(DB.QueryRowContext(ctx, query, supabaseID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting user by supabase id %s: %v", supabaseID, err)
	}
	return user, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)
	user, err := scanUser(DB.QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting user by email %s: %v", email, err)
	}
	return user, nil
}

func (s *PostgresStore) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	_, err := DB.ExecContext(ctx, `
		UPDATE users
		SET stripe_customer_id = $1
		WHERE id = $2
	`, customerID, userID)
	if err != nil {
		return fmt.Errorf("error updating Stripe customer id for user %s: %v", userID, err)
	}
	return nil
}

func (s *PostgresStore) SetSubscriptionID(ctx context.Context, userID, subscriptionID string) error {
	_, err := DB.ExecContext(ctx, `
		UPDATE users
		SET stripe_subscription_id = $1
		WHERE id = $2
	`, subscriptionID, userID)
	if err != nil {
		return fmt.Errorf("error updating subscription id for user %s: %v", userID, err)
	}
	return nil
}

func (s *PostgresStore) SetSubscriptionStatus(ctx context.Context, userID string, status models.SubscriptionStatus) error {
	_, err := DB.ExecContext(ctx, `
		UPDATE users
		SET stripe_subscription_status = $1
		WHERE id = $2
	`, status, userID)
	if err != nil {
		return fmt.Errorf("error updating subscription status for user %s: %v", userID, err)
	}
	return nil
}

// ApplyCheckout writes every field a completed checkout touches in one
// statement, so a partial failure cannot leave the row half-updated.
func (s *PostgresStore) ApplyCheckout(ctx context.Context, update CheckoutUpdate) error {
	_, err := DB.ExecContext(ctx, `
		UPDATE users
		SET plan = $1,
		    billing_period = $2,
		    articles_limit = $3,
		    articles_used = 0,
		    quota_reset_date = $4,
		    stripe_customer_id = $5,
		    stripe_subscription_id = NULLIF($6, ''),
		    stripe_subscription_status = $7
		WHERE id = $8
	`, update.Plan, update.Period, update.Limit, update.ResetDate,
		update.CustomerID, update.SubscriptionID, models.SubscriptionActive, update.UserID)
	if err != nil {
		return fmt.Errorf("error applying checkout for user %s: %v", update.UserID, err)
	}
	return nil
}

func (s *PostgresStore) UpdateStatusBySubscriptionID(ctx context.Context, subscriptionID string, status models.SubscriptionStatus) error {
	result, err := DB.ExecContext(ctx, `
		UPDATE users
		SET stripe_subscription_status = $1
		WHERE stripe_subscription_id = $2
	`, status, subscriptionID)
	if err != nil {
		return fmt.Errorf("error updating status for subscription %s: %v", subscriptionID, err)
	}
	return noRowsAsNotFound(result)
}

func (s *PostgresStore) ClearSubscription(ctx context.Context, subscriptionID string) error {
	result, err := DB.ExecContext(ctx, `
		UPDATE users
		SET plan = NULL,
		    articles_limit = 0,
		    stripe_subscription_id = NULL,
		    stripe_subscription_status = $1
		WHERE stripe_subscription_id = $2
	`, models.SubscriptionCanceled, subscriptionID)
	if err != nil {
		return fmt.Errorf("error clearing subscription %s: %v", subscriptionID, err)
	}
	return noRowsAsNotFound(result)
}

func (s *PostgresStore) ResetQuotaBySubscriptionID(ctx context.Context, subscriptionID string, resetDate time.Time) error {
	result, err := DB.ExecContext(ctx, `
		UPDATE users
		SET articles_used = 0,
		    quota_reset_date = $1,
		    stripe_subscription_status = $2
		WHERE stripe_subscription_id = $3
	`, resetDate, models.SubscriptionActive, subscriptionID)
	if err != nil {
		return fmt.Errorf("error resetting quota for subscription %s: %v", subscriptionID, err)
	}
	return noRowsAsNotFound(result)
}

func (s *PostgresStore) DemoteToFree(ctx context.Context, userID string) error {
	_, err := DB.ExecContext(ctx, `
		UPDATE users
		SET plan = NULL,
		    billing_period = NULL,
		    articles_limit = 0,
		    stripe_subscription_id = NULL,
		    stripe_subscription_status = NULL
		WHERE id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("error demoting user %s to free: %v", userID, err)
	}
	return nil
}

func (s *PostgresStore) IncrementUsage(ctx context.Context, userID string) error {
	_, err := DB.ExecContext(ctx, `
		UPDATE users
		SET articles_used = articles_used + 1
		WHERE id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("error incrementing usage for user %s: %v", userID, err)
	}
	return nil
}

func noRowsAsNotFound(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
