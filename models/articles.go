package models

import "time"

type Article struct {
	ID              string    `bson:"article_id" json:"id"`
	UserID          string    `bson:"user_id" json:"user_id"`
	Title           string    `bson:"title" json:"title"`
	Keyword         string    `bson:"keyword" json:"keyword"`
	Content         string    `bson:"content" json:"content"`
	WordCount       int       `bson:"word_count" json:"word_count"`
	Status          string    `bson:"status" json:"status"`
	WordPressPostID int       `bson:"wordpress_post_id,omitempty" json:"wordpress_post_id,omitempty"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
}

const (
	ArticleStatusDraft     = "draft"
	ArticleStatusPublished = "published"
)

// GenerateRequest is the article generation payload.
type GenerateRequest struct {
	Keyword string `json:"keyword" binding:"required"`
	Tone    string `json:"tone"`
	Length  int    `json:"length"`
}

// GenerationJob is one queued async generation.
type GenerationJob struct {
	JobID      string          `json:"job_id"`
	UserID     string          `json:"user_id"`
	SupabaseID string          `json:"supabase_id"`
	Request    GenerateRequest `json:"request"`
	EnqueuedAt int64           `json:"enqueued_at"`
}
