package store

import (
	"context"
	"sync"

	"github.com/example/pos-backend/internal/domain/user"
)

// MemoryUserStore is an in-memory account store for tests and local
// development.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]*user.User // tenantID + "/" + id
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		users: make(map[string]*user.User),
	}
}

func (ms *MemoryUserStore) Create(ctx context.Context, u *user.User) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for _, existing := range ms.users {
		if existing.TenantID == u.TenantID && existing.Email == u.Email {
			return user.ErrDuplicateEmail
		}
	}
	cp := *u
	ms.users[storeKey(u.TenantID, u.ID)] = &cp
	return nil
}

func (ms *MemoryUserStore) GetByID(ctx context.Context, tenantID, id string) (*user.User, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	existing, ok := ms.users[storeKey(tenantID, id)]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *existing
	return &cp, nil
}

func (ms *MemoryUserStore) GetByEmail(ctx context.Context, tenantID, email string) (*user.User, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	for _, existing := range ms.users {
		if existing.TenantID == tenantID && existing.Email == email {
			cp := *existing
			return &cp, nil
		}
	}
	return nil, user.ErrNotFound
}
