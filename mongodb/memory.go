package mongodb

import (
	"context"
	"sync"

	"contentpilot/api/models"
)

// MemoryArticleStore is an in-memory ArticleStore for handler tests.
type MemoryArticleStore struct {
	mu       sync.Mutex
	Articles []models.Article
}

func NewMemoryArticleStore() *MemoryArticleStore {
	return &MemoryArticleStore{}
}

func (m *MemoryArticleStore) CreateArticle(ctx context.Context, article *models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Articles = append(m.Articles, *article)
	return nil
}

func (m *MemoryArticleStore) GetArticlesByUserID(ctx context.Context, userID string) ([]models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Article
	for i := len(m.Articles) - 1; i >= 0; i-- {
		if m.Articles[i].UserID == userID {
			out = append(out, m.Articles[i])
		}
	}
	return out, nil
}

func (m *MemoryArticleStore) GetArticleByID(ctx context.Context, userID, articleID string) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.Articles {
		if a.UserID == userID && a.ID == articleID {
			article := a
			return &article, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryArticleStore) DeleteArticle(ctx context.Context, userID, articleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.Articles {
		if a.UserID == userID && a.ID == articleID {
			m.Articles = append(m.Articles[:i], m.Articles[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryArticleStore) MarkPublished(ctx context.Context, userID, articleID string, wordpressPostID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Articles {
		if m.Articles[i].UserID == userID && m.Articles[i].ID == articleID {
			m.Articles[i].Status = models.ArticleStatusPublished
			m.Articles[i].WordPressPostID = wordpressPostID
			return nil
		}
	}
	return ErrNotFound
}
