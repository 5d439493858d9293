package db

import (
	"context"
	"fmt"

	"contentpilot/api/models"
)

func (s *PostgresStore) CreateOneTimePurchase(ctx context.Context, purchase *models.OneTimePurchase) error {
	_, err := DB.ExecContext(ctx, `
		INSERT INTO one_time_purchases (id, user_id, stripe_session_id, plan, articles, used, created_at)
		VALUES ($1, $2, $3, $4, $5, false, $6)
		ON CONFLICT (stripe_session_id) DO NOTHING
	`, purchase.ID, purchase.UserID, purchase.StripeSessionID, purchase.Plan,
		purchase.Articles, purchase.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating one-time purchase for user %s: %v", purchase.UserID, err)
	}
	return nil
}

// ConsumeOneTimePurchase flags the oldest unused purchase as used.
func (s *PostgresStore) ConsumeOneTimePurchase(ctx context.Context, userID string) error {
	result, err := DB.ExecContext(ctx, `
		UPDATE one_time_purchases
		SET used = true
		WHERE id = (
			SELECT id FROM one_time_purchases
			WHERE user_id = $1 AND used = false
			ORDER BY created_at
			LIMIT 1
		)
	`, userID)
	if err != nil {
		return fmt.Errorf("error consuming one-time purchase for user %s: %v", userID, err)
	}
	return noRowsAsNotFound(result)
}
