package db

import (
	"context"
	"fmt"
)

// MarkEventProcessed records a Stripe event id and reports whether this
// delivery is the first one. Replayed deliveries return false so webhook
// handlers can skip re-applying state (a replayed checkout.session.completed
// would otherwise re-zero a user's usage).
func (s *PostgresStore) MarkEventProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	result, err := DB.ExecContext(ctx, `
		INSERT INTO stripe_events (event_id, event_type, processed_at)
		VALUES ($1, $2, now())
		ON CONFLICT (event_id) DO NOTHING
	`, eventID, eventType)
	if err != nil {
		return false, fmt.Errorf("error recording stripe event %s: %v", eventID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}
