package db

import (
	"context"
	"database/sql"
	"fmt"

	"contentpilot/api/models"
)

// GetQuotaSummary delegates the counting to the get_quota_summary Postgres
// function, which folds plan limits, usage and unused one-time purchases
// into one row.
func (s *PostgresStore) GetQuotaSummary(ctx context.Context, supabaseID string) (*models.QuotaSummary, error) {
	row := DB.QueryRowContext(ctx, `
		SELECT plan, articles_used, articles_limit, articles_remaining,
		       reset_date, one_time_available, has_unlimited
		FROM get_quota_summary($1)
	`, supabaseID)

	summary := &models.QuotaSummary{}
	var plan sql.NullString
	err := row.Scan(&plan, &summary.ArticlesUsed, &summary.ArticlesLimit,
		&summary.ArticlesRemaining, &summary.ResetDate,
		&summary.OneTimeAvailable, &summary.HasUnlimited)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting quota summary for user %s: %v", supabaseID, err)
	}
	summary.Plan = models.PlanFree
	if plan.Valid && plan.String != "" {
		summary.Plan = plan.String
	}
	return summary, nil
}
