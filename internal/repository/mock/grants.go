package mock

import (
	"context"
	"sync"
	"time"

	"github.com/Harsh-BH/baywatch/internal/domain"
	"github.com/Harsh-BH/baywatch/internal/repository"
)

var _ repository.GrantStore = (*GrantStore)(nil)

// GrantStore is an in-memory repository.GrantStore for testing.
type GrantStore struct {
	mu     sync.Mutex
	grants map[string]domain.ShareGrant

	IssueFn func(ctx context.Context, grant *domain.ShareGrant) error
}

// NewGrantStore creates an empty grant store.
func NewGrantStore() *GrantStore {
	return &GrantStore{grants: make(map[string]domain.ShareGrant)}
}

func (m *GrantStore) Issue(ctx context.Context, grant *domain.ShareGrant) error {
	if m.IssueFn != nil {
		return m.IssueFn(ctx, grant)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grants[grant.Token] = *grant
	return nil
}

func (m *GrantStore) Lookup(ctx context.Context, token string) (*domain.ShareGrant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.grants[token]
	if !ok || time.Now().After(g.ExpiresAt) {
		return nil, domain.ErrInvalidAccessToken
	}
	return &g, nil
}
