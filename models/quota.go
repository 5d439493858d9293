package models

import "time"

// QuotaSummary mirrors the row returned by the get_quota_summary
// Postgres function.
type QuotaSummary struct {
	Plan              string     `json:"plan"`
	ArticlesUsed      int        `json:"articlesUsed"`
	ArticlesLimit     int        `json:"articlesLimit"`
	ArticlesRemaining int        `json:"articlesRemaining"`
	ResetDate         *time.Time `json:"resetDate"`
	OneTimeAvailable  int        `json:"oneTimePurchasesAvailable"`
	HasUnlimited      bool       `json:"hasUnlimited"`
}

// CanGenerate reports whether another article generation is allowed.
func (q *QuotaSummary) CanGenerate() bool {
	return q.HasUnlimited || q.ArticlesRemaining > 0 || q.OneTimeAvailable > 0
}
