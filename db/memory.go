package db

import (
	"context"
	"sync"
	"time"

	"contentpilot/api/models"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used by handler tests and local
// development without a Postgres instance.
type MemoryStore struct {
	mu        sync.Mutex
	ByID      map[string]*models.User
	Purchases []*models.OneTimePurchase
	Events    map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ByID:   make(map[string]*models.User),
		Events: make(map[string]string),
	}
}

// AddUser seeds a user row; it is a test helper, not part of Store.
func (m *MemoryStore) AddUser(user *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	m.ByID[user.ID] = user
}

func (m *MemoryStore) EnsureUser(ctx context.Context, supabaseID, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.ByID {
		if u.SupabaseID == supabaseID {
			return u, nil
		}
	}
	user := &models.User{ID: uuid.NewString(), SupabaseID: supabaseID, Email: email}
	m.ByID[user.ID] = user
	return user, nil
}

func (m *MemoryStore) GetUserBySupabaseID(ctx context.Context, supabaseID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.ByID {
		if u.SupabaseID == supabaseID {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.ByID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.ByID[userID]; ok {
		u.StripeCustomerID = &customerID
	}
	return nil
}

func (m *MemoryStore) SetSubscriptionID(ctx context.Context, userID, subscriptionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.ByID[userID]; ok {
		u.StripeSubscription = &subscriptionID
	}
	return nil
}

func (m *MemoryStore) SetSubscriptionStatus(ctx context.Context, userID string, status models.SubscriptionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.ByID[userID]; ok {
		u.SubscriptionStatus = status
	}
	return nil
}

func (m *MemoryStore) ApplyCheckout(ctx context.Context, update CheckoutUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.ByID[update.UserID]
	if !ok {
		return ErrNotFound
	}
	plan, period := update.Plan, update.Period
	reset := update.ResetDate
	u.Plan = &plan
	u.BillingPeriod = &period
	u.ArticlesLimit = update.Limit
	u.ArticlesUsed = 0
	u.QuotaResetDate = &reset
	u.StripeCustomerID = &update.CustomerID
	if update.SubscriptionID != "" {
		sub := update.SubscriptionID
		u.StripeSubscription = &sub
	} else {
		u.StripeSubscription = nil
	}
	u.SubscriptionStatus = models.SubscriptionActive
	return nil
}

func (m *MemoryStore) findBySubscriptionID(subscriptionID string) *models.User {
	for _, u := range m.ByID {
		if u.StripeSubscription != nil && *u.StripeSubscription == subscriptionID {
			return u
		}
	}
	return nil
}

func (m *MemoryStore) UpdateStatusBySubscriptionID(ctx context.Context, subscriptionID string, status models.SubscriptionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.findBySubscriptionID(subscriptionID)
	if u == nil {
		return ErrNotFound
	}
	u.SubscriptionStatus = status
	return nil
}

func (m *MemoryStore) ClearSubscription(ctx context.Context, subscriptionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.findBySubscriptionID(subscriptionID)
	if u == nil {
		return ErrNotFound
	}
	u.Plan = nil
	u.ArticlesLimit = 0
	u.StripeSubscription = nil
	u.SubscriptionStatus = models.SubscriptionCanceled
	return nil
}

func (m *MemoryStore) ResetQuotaBySubscriptionID(ctx context.Context, subscriptionID string, resetDate time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.findBySubscriptionID(subscriptionID)
	if u == nil {
		return ErrNotFound
	}
	u.ArticlesUsed = 0
	u.QuotaResetDate = &resetDate
	u.SubscriptionStatus = models.SubscriptionActive
	return nil
}

func (m *MemoryStore) DemoteToFree(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.ByID[userID]
	if !ok {
		return ErrNotFound
	}
	u.Plan = nil
	u.BillingPeriod = nil
	u.ArticlesLimit = 0
	u.StripeSubscription = nil
	u.SubscriptionStatus = models.SubscriptionNone
	return nil
}

func (m *MemoryStore) IncrementUsage(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.ByID[userID]
	if !ok {
		return ErrNotFound
	}
	u.ArticlesUsed++
	return nil
}

func (m *MemoryStore) CreateOneTimePurchase(ctx context.Context, purchase *models.OneTimePurchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.Purchases {
		if p.StripeSessionID == purchase.StripeSessionID {
			return nil
		}
	}
	m.Purchases = append(m.Purchases, purchase)
	return nil
}

func (m *MemoryStore) ConsumeOneTimePurchase(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.Purchases {
		if p.UserID == userID && !p.Used {
			p.Used = true
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) MarkEventProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, seen := m.Events[eventID]; seen {
		return false, nil
	}
	m.Events[eventID] = eventType
	return true, nil
}

func (m *MemoryStore) GetQuotaSummary(ctx context.Context, supabaseID string) (*models.QuotaSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var user *models.User
	for _, u := range m.ByID {
		if u.SupabaseID == supabaseID {
			user = u
			break
		}
	}
	if user == nil {
		return nil, ErrNotFound
	}

	oneTime := 0
	for _, p := range m.Purchases {
		if p.UserID == user.ID && !p.Used {
			oneTime++
		}
	}

	summary := &models.QuotaSummary{
		Plan:             user.PlanName(),
		ArticlesUsed:     user.ArticlesUsed,
		ArticlesLimit:    user.ArticlesLimit,
		ResetDate:        user.QuotaResetDate,
		OneTimeAvailable: oneTime,
		HasUnlimited:     user.ArticlesLimit == models.UnlimitedArticles,
	}
	if !summary.HasUnlimited {
		remaining := user.ArticlesLimit - user.ArticlesUsed
		if remaining < 0 {
			remaining = 0
		}
		summary.ArticlesRemaining = remaining
	}
	return summary, nil
}
