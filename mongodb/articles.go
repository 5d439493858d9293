package mongodb

import (
	"context"
	"errors"
	"fmt"

	"contentpilot/api/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Articles is the active article store. InitMongoDB installs the Mongo
// implementation; tests swap in a MemoryArticleStore.
var Articles ArticleStore

// ArticleStore holds generated article documents, always scoped by user.
type ArticleStore interface {
	CreateArticle(ctx context.Context, article *models.Article) error
	GetArticlesByUserID(ctx context.Context, userID string) ([]models.Article, error)
	GetArticleByID(ctx context.Context, userID, articleID string) (*models.Article, error)
	DeleteArticle(ctx context.Context, userID, articleID string) error
	MarkPublished(ctx context.Context, userID, articleID string, wordpressPostID int) error
}

type mongoArticleStore struct{}

func (s *mongoArticleStore) collection() *mongo.Collection {
	return MongoClient.Database(MongoDatabase).Collection(ArticleCollection)
}

func (s *mongoArticleStore) CreateArticle(ctx context.Context, article *models.Article) error {
	_, err := s.collection().InsertOne(ctx, article)
	if err != nil {
		return fmt.Errorf("error creating article: %v", err)
	}
	return nil
}

func (s *mongoArticleStore) GetArticlesByUserID(ctx context.Context, userID string) ([]models.Article, error) {
	filter := bson.M{"user_id": userID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := s.collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching articles: %v", err)
	}
	defer cursor.Close(ctx)

	var articles []models.Article
	for cursor.Next(ctx) {
		var article models.Article
		if err := cursor.Decode(&article); err != nil {
			return nil, fmt.Errorf("error decoding article: %v", err)
		}
		articles = append(articles, article)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %v", err)
	}

	return articles, nil
}

func (s *mongoArticleStore) GetArticleByID(ctx context.Context, userID, articleID string) (*models.Article, error) {
	filter := bson.M{"user_id": userID, "article_id": articleID}
	var article models.Article
	err := s.collection().FindOne(ctx, filter).Decode(&article)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching article %s: %v", articleID, err)
	}
	return &article, nil
}

func (s *mongoArticleStore) DeleteArticle(ctx context.Context, userID, articleID string) error {
	filter := bson.M{"user_id": userID, "article_id": articleID}
	result, err := s.collection().DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("error deleting article %s: %v", articleID, err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoArticleStore) MarkPublished(ctx context.Context, userID, articleID string, wordpressPostID int) error {
	filter := bson.M{"user_id": userID, "article_id": articleID}
	update := bson.M{"$set": bson.M{
		"status":            models.ArticleStatusPublished,
		"wordpress_post_id": wordpressPostID,
	}}
	result, err := s.collection().UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("error marking article %s published: %v", articleID, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
